package proc

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubRunCommand replaces runCommand for the duration of a test.
func stubRunCommand(t *testing.T, fn func(name string, args ...string) (string, error)) {
	t.Helper()
	orig := runCommand
	runCommand = func(_ context.Context, name string, args ...string) (string, error) {
		return fn(name, args...)
	}
	t.Cleanup(func() { runCommand = orig })
}

func TestPS_List(t *testing.T) {
	stat := `    1     0  12345 /sbin/launchd
  300     1   4096 /bin/zsh
  500   300 204800 opencode
  501   500      - Some App Helper
  776   501   1024 ps
`
	args := `    1 /sbin/launchd
  300 -zsh
  500 opencode --model  sonnet
  501 /Applications/Some App.app/Helper
  777 ps -axo pid=,args=
`
	stubRunCommand(t, func(name string, a ...string) (string, error) {
		if name != "ps" {
			t.Fatalf("unexpected command %q", name)
		}
		if strings.Contains(strings.Join(a, " "), "args=") {
			return args, nil
		}
		return stat, nil
	})

	table, err := NewPS().List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}

	if len(table) != 4 {
		t.Fatalf("got %d entries, want 4", len(table))
	}

	e := table[500]
	if e.PPID != 300 {
		t.Errorf("PPID: got %d, want 300", e.PPID)
	}
	if e.Name != "opencode" {
		t.Errorf("Name: got %q, want %q", e.Name, "opencode")
	}
	if e.Args != "opencode --model  sonnet" {
		t.Errorf("Args: got %q, want %q", e.Args, "opencode --model  sonnet")
	}
	if e.RSS != "204800K" {
		t.Errorf("RSS: got %q, want %q", e.RSS, "204800K")
	}

	helper := table[501]
	if helper.Name != "Some App Helper" {
		t.Errorf("Name with spaces: got %q", helper.Name)
	}
	if helper.RSS != "" {
		t.Errorf("RSS for '-': got %q, want empty", helper.RSS)
	}
	if helper.Args != "/Applications/Some App.app/Helper" {
		t.Errorf("Args with spaces: got %q", helper.Args)
	}

	if _, ok := table[777]; ok {
		t.Errorf("pid only present in the args snapshot should be ignored")
	}
	if _, ok := table[776]; ok {
		t.Errorf("pid that exited before the args snapshot should be dropped")
	}
}

func TestPS_ListFailure(t *testing.T) {
	stubRunCommand(t, func(string, ...string) (string, error) {
		return "", errors.New("exec: \"ps\": executable file not found in $PATH")
	})

	if _, err := NewPS().List(context.Background()); err == nil {
		t.Fatal("expected error when ps cannot run")
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		line     string
		n        int
		wantLen  int
		wantRest string
	}{
		{line: "  1   2   3 a b c", n: 3, wantLen: 3, wantRest: "a b c"},
		{line: "42", n: 1, wantLen: 1, wantRest: ""},
		{line: "", n: 2, wantLen: 0, wantRest: ""},
		{line: "1\t2 rest", n: 2, wantLen: 2, wantRest: "rest"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			fields, rest := splitFields(tt.line, tt.n)
			if len(fields) != tt.wantLen {
				t.Errorf("fields: got %v, want %d fields", fields, tt.wantLen)
			}
			if rest != tt.wantRest {
				t.Errorf("rest: got %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestListerFromName(t *testing.T) {
	for _, name := range []string{"", "ps", "gopsutil"} {
		if _, err := ListerFromName(name); err != nil {
			t.Errorf("ListerFromName(%q) error: %v", name, err)
		}
	}
	if _, err := ListerFromName("wmi"); err == nil {
		t.Error("expected error for unknown source")
	}
}
