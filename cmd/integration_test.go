package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const salesCSV = `order_date,region,amount,units
2023-01-05,north,120.5,3
2023-02-11,south,80,2
2023-03-17,north,99.9,2
2023-04-02,east,150,4
2023-05-23,south,60,1
2023-06-30,east,175.25,5
`

// resetFlags restores every flag to its default so values do not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns stdout.
func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func isolate(t *testing.T) (home, storage string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	return home, filepath.Join(home, "storage")
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

var jobIDPattern = regexp.MustCompile(`as job ([0-9a-f]{8})`)

func TestCLI_SubmitThenWorkerOnce(t *testing.T) {
	home, storage := isolate(t)
	writeInput(t, home, "sales_q1.csv", salesCSV)
	writeInput(t, home, "sales_q2.csv", salesCSV)

	out := runCmd(t, "--storage", storage, "submit", filepath.Join(home, "sales_*.csv"))
	ids := jobIDPattern.FindAllStringSubmatch(out, -1)
	if len(ids) != 2 {
		t.Fatalf("expected two submitted jobs, got output:\n%s", out)
	}

	out = runCmd(t, "--storage", storage, "worker", "--once")
	if !strings.Contains(out, "2 completed, 0 failed") {
		t.Fatalf("unexpected sweep summary: %s", out)
	}
	for _, m := range ids {
		dir := filepath.Join(storage, "outputs", m[1])
		for _, name := range []string{"status.txt", "description.json", "insights.json", "feature_insights.json", "preview.json"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Fatalf("job %s missing %s: %v", m[1], name, err)
			}
		}
		if _, err := os.Stat(filepath.Join(dir, "plots", "order_date.png")); err != nil {
			t.Fatalf("job %s missing trend chart: %v", m[1], err)
		}
	}

	out = runCmd(t, "--storage", storage, "worker", "--once")
	if !strings.Contains(out, "0 completed, 0 failed, 2 skipped") {
		t.Fatalf("second sweep should skip finished jobs: %s", out)
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	home, storage := isolate(t)
	p := writeInput(t, home, "sales.csv", salesCSV)

	out := runCmd(t, "--storage", storage, "analyze", p, "--json")
	var doc struct {
		MainTitle    string `json:"main_title"`
		SummaryStats struct {
			TotalRecords int `json:"total_records"`
		} `json:"summary_stats"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode description: %v\n%s", err, out)
	}
	if doc.MainTitle != "Dataset Overview & Analysis" || doc.SummaryStats.TotalRecords != 6 {
		t.Fatalf("unexpected description: %+v", doc)
	}

	out = runCmd(t, "--storage", storage, "analyze", p)
	if !strings.Contains(out, "completed") || !strings.Contains(out, "amount") {
		t.Fatalf("unexpected ranking output:\n%s", out)
	}
}

func TestCLI_AnalyzeReportsTerminalFailure(t *testing.T) {
	home, storage := isolate(t)
	p := writeInput(t, home, "broken.csv", "a,b\n\"unterminated,1\n")

	_, err := execCmd("--storage", storage, "analyze", p)
	if err == nil || !strings.Contains(err.Error(), "failed at load") {
		t.Fatalf("expected load failure, got %v", err)
	}

	_, err = execCmd("--storage", storage, "analyze", writeInput(t, home, "notes.txt", "hi"))
	if err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolate(t)
	cfgPath := filepath.Join(home, "dataslide.yaml")

	runCmd(t, "--config", cfgPath, "config", "set", "max_attempts", "3")
	runCmd(t, "--config", cfgPath, "config", "set", "render_charts", "false")
	out := runCmd(t, "--config", cfgPath, "config", "show")
	for _, want := range []string{"max_attempts: 3", "render_charts: false", "poll_interval_sec: 5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}

	if _, err := execCmd("--config", cfgPath, "config", "set", "max_attempts", "zero"); err == nil {
		t.Fatalf("expected invalid value error")
	}
}

func TestCLI_Schema(t *testing.T) {
	isolate(t)
	out := runCmd(t, "schema", "description")
	for _, want := range []string{`"main_title"`, `"full_analysis"`, `"processing_info"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("schema missing %s", want)
		}
	}
	if _, err := execCmd("schema", "pptx"); err == nil {
		t.Fatalf("expected unknown document error")
	}
}
