package proc

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runCommand executes a tool and returns its stdout. Tests replace it.
var runCommand = func(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// PS lists processes with two ps snapshots: one for the numeric columns and
// the process name, one for the full command line. Both columns that can
// contain spaces are last on their line, so each line splits unambiguously.
type PS struct{}

// NewPS creates a ps-backed lister.
func NewPS() *PS {
	return &PS{}
}

// Name returns "ps".
func (p *PS) Name() string {
	return "ps"
}

// List snapshots the process table.
func (p *PS) List(ctx context.Context) (Table, error) {
	stat, err := runCommand(ctx, "ps", "-axo", "pid=,ppid=,rss=,comm=")
	if err != nil {
		return nil, fmt.Errorf("ps -axo pid,ppid,rss,comm: %w", err)
	}
	args, err := runCommand(ctx, "ps", "-axo", "pid=,args=")
	if err != nil {
		return nil, fmt.Errorf("ps -axo pid,args: %w", err)
	}

	// Only pids present in both snapshots are kept: the others started or
	// exited in between, like the first ps child of this very run.
	table := parseStatLines(stat)
	cmdlines := parseArgLines(args)
	for pid, e := range table {
		cmdline, ok := cmdlines[pid]
		if !ok {
			delete(table, pid)
			continue
		}
		e.Args = cmdline
		table[pid] = e
	}
	return table, nil
}

// parseStatLines parses "PID PPID RSS COMM" lines. ps reports RSS in KiB.
func parseStatLines(out string) Table {
	table := Table{}
	for _, line := range strings.Split(out, "\n") {
		fields, rest := splitFields(line, 3)
		if len(fields) < 3 {
			continue
		}
		pid, err1 := strconv.Atoi(fields[0])
		ppid, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || pid <= 0 {
			continue
		}
		e := Entry{PID: pid, PPID: ppid, Name: rest}
		if fields[2] != "" && fields[2] != "-" {
			e.RSS = fields[2] + "K"
		}
		table[pid] = e
	}
	return table
}

// parseArgLines parses "PID ARGS..." lines.
func parseArgLines(out string) map[int]string {
	args := map[int]string{}
	for _, line := range strings.Split(out, "\n") {
		fields, rest := splitFields(line, 1)
		if len(fields) < 1 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid <= 0 {
			continue
		}
		args[pid] = rest
	}
	return args
}

// splitFields takes n whitespace-separated fields off the front of line and
// returns them with the trimmed remainder. ps pads columns with a variable
// number of spaces.
func splitFields(line string, n int) ([]string, string) {
	rest := strings.TrimSpace(line)
	fields := make([]string, 0, n)
	for len(fields) < n && rest != "" {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:idx])
		rest = strings.TrimSpace(rest[idx:])
	}
	return fields, rest
}
