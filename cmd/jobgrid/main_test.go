package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/config"
	"github.com/evanschultz/jobgrid/internal/tui"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("JOBGRID_DEV_MODE", "false")
	_ = os.Unsetenv("JOBGRID_CONFIG")
	_ = os.Unsetenv("JOBGRID_DB_PATH")
	os.Exit(m.Run())
}

// fakeProgram records sends and returns runErr from Run.
type fakeProgram struct {
	runErr error

	mu   sync.Mutex
	sent []tea.Msg
}

func (f *fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

func (f *fakeProgram) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
}

func (f *fakeProgram) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeProgram) firstSent() tea.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[0]
}

const seedJSONC = `// two rows
[
  {"id": 1, "jobRequest": "Launch social media campaign", "status": "In-process", "priority": "Medium"},
  {"id": 2, "jobRequest": "Update press kit", "status": "Need to start", "priority": "High"},
]
`

// writeTestConfig writes a config that points the seed at seedPath and disables delays.
func writeTestConfig(t *testing.T, path, seedPath string, watch bool) {
	t.Helper()
	content := fmt.Sprintf(`
[source]
seed_path = %q
load_delay = "0s"
watch = %t
`, seedPath, watch)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func writeSeed(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func stubProgram(t *testing.T) *fakeProgram {
	t.Helper()
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	fake := &fakeProgram{}
	programFactory = func(tea.Model) program { return fake }
	return fake
}

func exportSnapshot(t *testing.T, dbPath, cfgPath string) app.Snapshot {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "export"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(out.Bytes(), &snap); err != nil {
		t.Fatalf("decode export output: %v\n%s", err, out.String())
	}
	return snap
}

// TestRunVersion verifies the version flag prints the build version.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies the default command starts the grid program.
func TestRunStartsProgram(t *testing.T) {
	stubProgram(t)
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, filepath.Join(tmp, "missing.json"), false)

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestRunPropagatesProgramError verifies a failing program loop surfaces as an error.
func TestRunPropagatesProgramError(t *testing.T) {
	fake := stubProgram(t)
	fake.runErr = fmt.Errorf("terminal gone")
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, filepath.Join(tmp, "missing.json"), false)

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "terminal gone") {
		t.Fatalf("expected program error, got %v", err)
	}
}

// TestRunTUIImportsSeedOnStartup verifies an existing seed file is loaded before the grid opens.
func TestRunTUIImportsSeedOnStartup(t *testing.T) {
	stubProgram(t)
	tmp := t.TempDir()
	seedPath := filepath.Join(tmp, "seed.jsonc")
	writeSeed(t, seedPath, seedJSONC)
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, seedPath, false)
	dbPath := filepath.Join(tmp, "grid.db")

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	snap := exportSnapshot(t, dbPath, cfgPath)
	if len(snap.Records) != 2 || snap.Records[1].JobRequest != "Update press kit" {
		t.Fatalf("expected seeded records, got %#v", snap.Records)
	}
}

// TestRunSeedCommandSkipsUnchangedFile verifies the digest check on repeated imports.
func TestRunSeedCommandSkipsUnchangedFile(t *testing.T) {
	tmp := t.TempDir()
	seedPath := filepath.Join(tmp, "seed.jsonc")
	writeSeed(t, seedPath, seedJSONC)
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, seedPath, false)
	args := []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath, "seed"}

	var out strings.Builder
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 records") {
		t.Fatalf("expected import summary, got %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), args, &out, io.Discard); err != nil {
		t.Fatalf("run(seed) second error = %v", err)
	}
	if !strings.Contains(out.String(), "seed unchanged") {
		t.Fatalf("expected unchanged seed, got %q", out.String())
	}
}

// TestRunSeedCommandFileFlag verifies --file overrides the configured seed path.
func TestRunSeedCommandFileFlag(t *testing.T) {
	tmp := t.TempDir()
	yamlPath := filepath.Join(tmp, "rows.yaml")
	writeSeed(t, yamlPath, "records:\n  - id: 7\n    jobRequest: Prepare Q4 budget\n    status: Blocked\n    priority: Low\n")
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, filepath.Join(tmp, "unused.json"), false)
	dbPath := filepath.Join(tmp, "grid.db")

	if err := run(context.Background(), []string{"--db", dbPath, "--config", cfgPath, "seed", "--file", yamlPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(seed --file) error = %v", err)
	}
	snap := exportSnapshot(t, dbPath, cfgPath)
	if len(snap.Records) != 1 || snap.Records[0].ID != 7 {
		t.Fatalf("expected yaml record, got %#v", snap.Records)
	}
}

// TestRunSeedCommandRejectsBadFile verifies decode failures are returned.
func TestRunSeedCommandRejectsBadFile(t *testing.T) {
	tmp := t.TempDir()
	badPath := filepath.Join(tmp, "rows.txt")
	writeSeed(t, badPath, "nope")
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, badPath, false)

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath, "seed"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "load seed") {
		t.Fatalf("expected seed load error, got %v", err)
	}
}

// TestRunExportImportRoundTrip verifies a snapshot moves records and layout between databases.
func TestRunExportImportRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	seedPath := filepath.Join(tmp, "seed.jsonc")
	writeSeed(t, seedPath, seedJSONC)
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, seedPath, false)
	srcDB := filepath.Join(tmp, "src.db")
	dstDB := filepath.Join(tmp, "dst.db")

	if err := run(context.Background(), []string{"--db", srcDB, "--config", cfgPath, "seed"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	outPath := filepath.Join(tmp, "out", "snapshot.json")
	if err := run(context.Background(), []string{"--db", srcDB, "--config", cfgPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	if err := run(context.Background(), []string{"--db", dstDB, "--config", cfgPath, "import", "--in", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	src := exportSnapshot(t, srcDB, cfgPath)
	dst := exportSnapshot(t, dstDB, cfgPath)
	if src.Version != app.SnapshotVersion || len(dst.Records) != len(src.Records) {
		t.Fatalf("expected identical record sets, got %d vs %d", len(src.Records), len(dst.Records))
	}
	for i := range src.Records {
		if src.Records[i] != dst.Records[i] {
			t.Fatalf("record %d differs: %#v vs %#v", i, src.Records[i], dst.Records[i])
		}
	}
}

// TestRunImportErrors verifies missing flags and unreadable files fail.
func TestRunImportErrors(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, filepath.Join(tmp, "missing.json"), false)
	base := []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath, "import"}

	if err := run(context.Background(), base, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error without --in")
	}
	if err := run(context.Background(), append(base, "--in", filepath.Join(tmp, "nope.json")), io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for missing snapshot file")
	}
	badPath := filepath.Join(tmp, "bad.json")
	writeSeed(t, badPath, "{")
	if err := run(context.Background(), append(base, "--in", badPath), io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}

// TestRunUnknownCommand verifies unknown commands are rejected.
func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"nope"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
}

// TestRunInvalidFlag verifies unknown flags are rejected.
func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--definitely-not-a-flag"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunPathsCommand verifies resolved paths are printed for the chosen app name.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "grid-test", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{"app: grid-test", "dev_mode: false", "config:", "db:", "seed:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in paths output, got %q", want, out.String())
		}
	}
	if !strings.Contains(out.String(), "grid-test.db") {
		t.Fatalf("expected app-named database, got %q", out.String())
	}
}

// TestRunConfigAndDBEnvOverrides verifies JOBGRID_CONFIG and JOBGRID_DB_PATH are honoured.
func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	seedPath := filepath.Join(tmp, "seed.jsonc")
	writeSeed(t, seedPath, seedJSONC)
	cfgPath := filepath.Join(tmp, "config.toml")
	writeTestConfig(t, cfgPath, seedPath, false)
	dbPath := filepath.Join(tmp, "env.db")
	t.Setenv("JOBGRID_CONFIG", cfgPath)
	t.Setenv("JOBGRID_DB_PATH", dbPath)

	if err := run(context.Background(), []string{"seed"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(seed) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database at env path: %v", err)
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies config validation stops startup.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	writeSeed(t, cfgPath, "[logging]\nlevel = \"loud\"\n")

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath, "export"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected logging level error, got %v", err)
	}
}

// TestRunDevModeCreatesLogFile verifies dev mode writes logfmt events to the dev file sink.
func TestRunDevModeCreatesLogFile(t *testing.T) {
	tmp := t.TempDir()
	logDir := filepath.Join(tmp, "logs")
	cfgPath := filepath.Join(tmp, "config.toml")
	content := fmt.Sprintf("[logging]\nlevel = \"debug\"\n[logging.dev_file]\nenabled = true\ndir = %q\n", logDir)
	writeSeed(t, cfgPath, content)

	var stderr strings.Builder
	err := run(context.Background(), []string{"--dev", "--app", "gridlog", "--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath, "export", "--out", filepath.Join(tmp, "snap.json")}, io.Discard, &stderr)
	if err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(logDir, "gridlog-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one dev log file, got %v (%v)", matches, err)
	}
	body, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(body), "command flow complete") || !strings.Contains(string(body), "command=export") {
		t.Fatalf("expected logfmt runtime events, got %q", string(body))
	}
	if !strings.Contains(stderr.String(), "command flow complete") {
		t.Fatalf("expected console events for non-tui command, got %q", stderr.String())
	}
}

// TestRunTUIModeWritesRuntimeLogsToFileOnly verifies the console stays quiet while the grid runs.
func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	stubProgram(t)
	tmp := t.TempDir()
	logDir := filepath.Join(tmp, "logs")
	cfgPath := filepath.Join(tmp, "config.toml")
	content := fmt.Sprintf("[source]\nseed_path = %q\nload_delay = \"0s\"\nwatch = false\n[logging.dev_file]\nenabled = true\ndir = %q\n", filepath.Join(tmp, "none.json"), logDir)
	writeSeed(t, cfgPath, content)

	var stderr strings.Builder
	if err := run(context.Background(), []string{"--dev", "--db", filepath.Join(tmp, "grid.db"), "--config", cfgPath}, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if strings.Contains(stderr.String(), "starting tui program loop") {
		t.Fatalf("expected muted console, got %q", stderr.String())
	}
	matches, _ := filepath.Glob(filepath.Join(logDir, "*.log"))
	if len(matches) != 1 {
		t.Fatalf("expected dev log file, got %v", matches)
	}
	body, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(body), "starting tui program loop") {
		t.Fatalf("expected tui events in dev log, got %q", string(body))
	}
}

// TestStartSeedWatcherForwardsChanges verifies seed edits reach the program as reload messages.
func TestStartSeedWatcherForwardsChanges(t *testing.T) {
	tmp := t.TempDir()
	seedPath := filepath.Join(tmp, "seed.jsonc")
	writeSeed(t, seedPath, seedJSONC)
	logger, err := newRuntimeLogger(io.Discard, "jobgrid", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	cfg := config.Default(filepath.Join(tmp, "grid.db"))
	cfg.Source.Watch = true
	rt := &appRuntime{cfg: cfg, logger: logger}
	fake := &fakeProgram{}

	stop := startSeedWatcher(rt, seedPath, fake)
	defer stop()
	writeSeed(t, seedPath, strings.Replace(seedJSONC, "press kit", "press kit v2", 1))

	deadline := time.Now().Add(5 * time.Second)
	for fake.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if fake.sentCount() == 0 {
		t.Fatal("expected a seed change message")
	}
	if msg, ok := fake.firstSent().(tui.SeedChangedMsg); !ok {
		t.Fatalf("expected SeedChangedMsg, got %T", msg)
	}
}

// TestStartSeedWatcherDisabled verifies watching can be turned off.
func TestStartSeedWatcherDisabled(t *testing.T) {
	cfg := config.Default("grid.db")
	cfg.Source.Watch = false
	stop := startSeedWatcher(&appRuntime{cfg: cfg}, "seed.json", &fakeProgram{})
	stop()
}

// TestConfigMappings verifies config sections map onto model options.
func TestConfigMappings(t *testing.T) {
	cfg := config.Default("grid.db")
	cfg.Grid.MinRows = 80
	cfg.Grid.CellWidthPx = 10
	cfg.Keys.Search = "f"

	grid := toGridConfig(cfg)
	if grid.Padder.MinRows != 80 || grid.CellWidthPx != 10 || grid.RowHeightPx != 32 {
		t.Fatalf("unexpected grid config %#v", grid)
	}
	keys := toKeyConfig(cfg.Keys)
	if keys.Search != "f" || keys.AddColumn != "+" || keys.SelectAll != "A" {
		t.Fatalf("unexpected key config %#v", keys)
	}
}

// TestParseBoolEnv verifies env parsing accepts only valid booleans.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("JOBGRID_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("JOBGRID_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %v %v", v, ok)
	}
	t.Setenv("JOBGRID_TEST_BOOL", "maybe")
	if _, ok := parseBoolEnv("JOBGRID_TEST_BOOL"); ok {
		t.Fatal("expected invalid bool to be ignored")
	}
	t.Setenv("JOBGRID_TEST_BOOL", "")
	if _, ok := parseBoolEnv("JOBGRID_TEST_BOOL"); ok {
		t.Fatal("expected empty value to be ignored")
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies log placement finds the enclosing workspace.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("expected %q, got %q", root, got)
	}
}

// TestDevLogFilePath verifies absolute dirs are kept and the day stamp is appended.
func TestDevLogFilePath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	got, err := devLogFilePath(dir, "job grid", now)
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(dir, "job-grid-20260309.log"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestSanitizeLogFileStem verifies unsafe characters and blanks are handled.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"jobgrid":   "jobgrid",
		"a/b:c":     "a-b-c",
		"  ":        "jobgrid",
		"/leading/": "leading",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies muting stops console output.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newRuntimeLogger(&buf, "jobgrid", false, config.LoggingConfig{Level: "info"}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	logger.Info("visible")
	logger.SetConsoleEnabled(false)
	logger.Info("hidden")
	logger.Debug("below level")

	out := buf.String()
	if !strings.Contains(out, "visible") || strings.Contains(out, "hidden") {
		t.Fatalf("unexpected console output %q", out)
	}
}
