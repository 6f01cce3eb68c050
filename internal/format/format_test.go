package format

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/timvw/tmux-mem/internal/model"
)

const mib = 1 << 20

func sampleRows() []model.ReportRow {
	ai := model.Pane{
		Handle:       model.PaneHandle{Session: "ai", Window: 6, Pane: 0},
		WindowName:   "opencode",
		PID:          100,
		HistorySize:  1500,
		HistoryLimit: 50000,
	}
	return []model.ReportRow{
		{
			Process: model.ProcessRecord{
				PID:      100,
				Command:  "opencode --port 4096",
				Swap:     model.KnownBytes(50 * mib),
				Physical: model.KnownBytes(math.MaxUint64),
				RSS:      model.KnownBytes(0),
			},
			Pane:    &ai,
			History: &model.HistoryEstimate{Pane: ai.Handle, Bytes: 2048},
		},
		{
			Process: model.ProcessRecord{
				PID:     200,
				Command: `opencode "quoted", with | pipe`,
				Swap:    model.KnownBytes(10 * mib),
			},
		},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"table", Table},
		{"JSON", JSON},
		{"csv", CSV},
		{"yaml", YAML},
		{"yml", YAML},
		{"markdown", Markdown},
		{" md ", Markdown},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := Parse("xml")
	assert.Error(t, err)
}

func TestFromPath(t *testing.T) {
	tests := map[string]Format{
		"out.json":        JSON,
		"out.CSV":         CSV,
		"report.yaml":     YAML,
		"report.yml":      YAML,
		"README.md":       Markdown,
		"notes.markdown":  Markdown,
		"plain.txt":       Table,
		"noext":           JSON,
		"/tmp/dir.x/file": JSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FromPath(path), path)
	}
}

func TestRender_JSONRoundTrip(t *testing.T) {
	out, err := Render(JSON, sampleRows())
	require.NoError(t, err)

	var got []Record
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, 100, first.PID)
	require.NotNil(t, first.PhysicalBytes)
	assert.Equal(t, uint64(math.MaxUint64), *first.PhysicalBytes)
	require.NotNil(t, first.RSSBytes)
	assert.Equal(t, uint64(0), *first.RSSBytes)
	require.NotNil(t, first.Target)
	assert.Equal(t, "ai:6.0", *first.Target)
	require.NotNil(t, first.HistoryLines)
	assert.Equal(t, "1500/50000", *first.HistoryLines)

	second := got[1]
	assert.Nil(t, second.Target)
	assert.Nil(t, second.PhysicalBytes)
	assert.Nil(t, second.RSSBytes)
	assert.Nil(t, second.HistoryBytes)
	assert.Equal(t, `opencode "quoted", with | pipe`, second.Command)

	assert.Contains(t, out, `"physical_bytes": null`)
	assert.Contains(t, out, `"rss_bytes": 0`)
}

func TestRender_YAMLRoundTrip(t *testing.T) {
	out, err := Render(YAML, sampleRows())
	require.NoError(t, err)

	var got []Record
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	want := NewRecords(sampleRows())
	assert.Equal(t, want, got)
	assert.Nil(t, got[1].Window)
}

func TestRender_EmptyReport(t *testing.T) {
	out, err := Render(JSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = Render(YAML, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = Render(CSV, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(processCSVHeader, ",")+"\n", out)

	out, err = Render(Table, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "PID")
	assert.Contains(t, out, "Processes:")
}

func TestRender_CSV(t *testing.T) {
	out, err := Render(CSV, sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, processCSVHeader, records[0])

	first := records[1]
	assert.Equal(t, "100", first[0])
	assert.Equal(t, "ai:6.0", first[1])
	assert.Equal(t, "52428800", first[3])
	assert.Equal(t, "50 MiB", first[4])
	assert.Equal(t, "18446744073709551615", first[5])
	assert.Equal(t, "0", first[7])
	assert.Equal(t, "2048", first[9])

	second := records[2]
	assert.Equal(t, UnknownPane, second[1])
	assert.Equal(t, Absent, second[5])
	assert.Equal(t, Absent, second[9])
	assert.Equal(t, `opencode "quoted", with | pipe`, second[12])
	assert.Contains(t, out, `"opencode ""quoted"", with | pipe"`)
}

func TestRender_Markdown(t *testing.T) {
	out, err := Render(Markdown, sampleRows())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| PID | Tmux window.pane | Window | Swap | Physical | RSS | PaneHistory | History lines | Command |", lines[0])
	assert.Equal(t, "|---:|---|---|---:|---:|---:|---:|---:|---|", lines[1])
	assert.Equal(t, "| 100 | ai:6.0 | opencode | 50 MiB | 16 EiB | 0 B | 2.0 KiB | 1500/50000 | opencode --port 4096 |", lines[2])
	assert.Equal(t, `| 200 | ? | ? | 10 MiB | - | - | - | ? | opencode "quoted", with \| pipe |`, lines[3])
}

func TestRender_Table(t *testing.T) {
	out, err := Render(Table, sampleRows())
	require.NoError(t, err)

	for _, want := range []string{
		"PID", "Tmux window.pane", "PaneHistory", "History lines",
		"ai:6.0", "opencode --port 4096", "50 MiB", "10 MiB",
		"Total swap:", "60 MiB",
		"Total pane history bytes:", "2.0 KiB",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_CommandNewlinesFlattened(t *testing.T) {
	rows := []model.ReportRow{{Process: model.ProcessRecord{PID: 1, Command: "a\nb"}}}

	out, err := Render(Markdown, rows)
	require.NoError(t, err)
	assert.Contains(t, out, "| a b |")
}

func TestRenderPanes(t *testing.T) {
	ai := model.Pane{Handle: model.PaneHandle{Session: "ai", Window: 6, Pane: 0}, WindowName: "opencode", HistorySize: 1, HistoryLimit: 2}
	panes := []model.PaneSummary{
		{Pane: &ai, PIDs: []int{100, 101}, Swap: model.KnownBytes(3 * mib), History: &model.HistoryEstimate{Pane: ai.Handle, Bytes: 10}},
		{PIDs: []int{200}, Swap: model.KnownBytes(mib)},
	}

	out, err := RenderPanes(JSON, panes)
	require.NoError(t, err)
	var got []PaneRecord
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, []int{100, 101}, got[0].PIDs)
	assert.Equal(t, 2, got[0].ProcessCount)
	assert.Nil(t, got[1].Target)
	assert.Nil(t, got[1].RSSBytes)

	out, err = RenderPanes(CSV, panes)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "100;101", records[1][3])
	assert.Equal(t, UnknownPane, records[2][0])

	out, err = RenderPanes(Markdown, panes)
	require.NoError(t, err)
	assert.Contains(t, out, "| ai:6.0 | opencode | 2 | 100 101 | 3.0 MiB |")

	out, err = RenderPanes(Table, panes)
	require.NoError(t, err)
	assert.Contains(t, out, "Panes:")
	assert.Contains(t, out, "4.0 MiB")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(Format("xml"), nil)
	assert.Error(t, err)
	_, err = RenderPanes(Format("xml"), nil)
	assert.Error(t, err)
}

func TestHuman(t *testing.T) {
	assert.Equal(t, Absent, Human(model.Bytes{}))
	assert.Equal(t, "0 B", Human(model.KnownBytes(0)))
	assert.Equal(t, "1.0 KiB", Human(model.KnownBytes(1024)))
}
