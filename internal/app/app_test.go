package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/monitor"
	"github.com/vk/bremsim/internal/testutil"
)

// fixture lays out the resources of a photon-gun simulation in a temporary
// directory. Every event of such a simulation records exactly one hit.
type fixture struct {
	dir    string
	hitLog string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"geometry.txt":     "material W\nthickness 0.1\n",
		"spectrum_new.mac": "/gps/hist/point 0.06 1\n",
	})
	return fixture{dir: dir, hitLog: filepath.Join(dir, "outputdata.txt")}
}

// hcl returns a macro pointing at the fixture resources followed by runs.
func (f fixture) hcl(runs string) string {
	return fmt.Sprintf(`
gun {
  particle = "gamma"
}

spectrum {
  path = %q
}

geometry {
  path    = %q
  run_log = %q
}

output {
  hit_log = %q
}
%s`,
		filepath.Join(f.dir, "spectrum_new.mac"),
		filepath.Join(f.dir, "geometry.txt"),
		filepath.Join(f.dir, "runlog.txt"),
		f.hitLog,
		runs)
}

func (f fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f fixture) rows(t *testing.T) int {
	t.Helper()
	content := strings.TrimSuffix(testutil.ReadFile(t, f.hitLog), "\n")
	return len(strings.Split(content, "\n")) - 1
}

func newTestApp(t *testing.T, cfg *Config, input string) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	a := NewApp(strings.NewReader(input), out, logs, cfg, nil)

	t.Cleanup(func() {
		if os.Getenv("BREMSIM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

func TestRun_BatchHCL(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	macro := f.write(t, "run.hcl", f.hcl(`
run "first" {
  events         = 3
  print_progress = 1
}

run "second" {
  events = 2
  seed   = 9
}
`))
	a, out, logs := newTestApp(t, &Config{MacroPath: macro}, "")

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 5, f.rows(t))
	assert.Equal(t, "--> End of event: 0\n\n--> End of event: 1\n\n--> End of event: 2\n\n", out.String())
	assert.Contains(t, logs.String(), "Macro loaded.")
	assert.Contains(t, logs.String(), "run=second")
}

func TestRun_BatchYAML(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	macro := f.write(t, "run.yaml", fmt.Sprintf(`
gun:
  particle: gamma
spectrum:
  path: %s
geometry:
  path: %s
  run_log: %s
output:
  hit_log: %s
runs:
  - name: only
    events: 4
    workers: 2
`,
		filepath.Join(f.dir, "spectrum_new.mac"),
		filepath.Join(f.dir, "geometry.txt"),
		filepath.Join(f.dir, "runlog.txt"),
		f.hitLog))
	a, _, _ := newTestApp(t, &Config{MacroPath: macro}, "")

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 4, f.rows(t))
}

func TestRun_BatchErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		file    string
		content string
		wantIs  error
		wantMsg string
	}{
		{
			name:    "syntax error",
			file:    "broken.hcl",
			content: "gun {\n  particle = \n",
			wantMsg: "failed to load macro",
		},
		{
			name:    "validation error",
			file:    "invalid.hcl",
			content: "run \"bad\" {\n  events = -1\n}\n",
			wantIs:  config.ErrInvalid,
		},
		{
			name:    "unsupported extension",
			file:    "run.mac",
			content: "/run/beamOn 10\n",
			wantIs:  config.ErrUnsupportedFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			f := newFixture(t)
			macro := f.write(t, tc.file, tc.content)
			a, _, _ := newTestApp(t, &Config{MacroPath: macro}, "")

			// --- Act ---
			err := a.Run(context.Background())

			// --- Assert ---
			require.Error(t, err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
			if tc.wantMsg != "" {
				assert.ErrorContains(t, err, tc.wantMsg)
			}
		})
	}
}

func TestRun_Interactive(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	f.write(t, InteractiveMacro, f.hcl(`
run "startup" {
  events = 2
}
`))
	input := strings.Join([]string{
		"help",
		"",
		"# a comment",
		"bogus",
		"seed x",
		"seed 5",
		"workers 2",
		"beamOn 3",
		"status",
		"quit",
		"beamOn 100",
	}, "\n")
	a, out, _ := newTestApp(t, &Config{Interactive: true, Dir: f.dir}, input)

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 5, f.rows(t))

	console := out.String()
	assert.Contains(t, console, "beamOn <n>")
	assert.Contains(t, console, `error: unknown command "bogus", type help for a list`)
	assert.Contains(t, console, `error: seed: "x" is not a non-negative integer`)
	assert.Contains(t, console, "hits recorded:    5\n")
	assert.Contains(t, console, "runs:             2\n")
	assert.Contains(t, console, "seed:             5\n")
	assert.Contains(t, console, "workers:          2\n")
	assert.Contains(t, console, "thickness:        0.1 mm\n")
	assert.Equal(t, 10, strings.Count(console, Prompt))
}

func TestRun_InteractiveEndsAtEOF(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t)
	f.write(t, InteractiveMacro, f.hcl(""))
	a, out, _ := newTestApp(t, &Config{Interactive: true, Dir: f.dir}, "beamOn 1\nverbose 2\nbeamOn 1")

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 2, f.rows(t))
	assert.Equal(t, 1, strings.Count(out.String(), "-------->Hits Collection"))
	assert.True(t, strings.HasSuffix(out.String(), Prompt+"\n"))
}

func TestInteractiveModel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		macro     string
		wantRuns  int
		wantError bool
	}{
		{name: "missing macro uses defaults", wantRuns: 0},
		{name: "valid macro", macro: "run \"a\" {\n  events = 1\n}\n", wantRuns: 1},
		{name: "broken macro falls back", macro: "run {", wantRuns: 0, wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			files := map[string]string{}
			if tc.macro != "" {
				files[InteractiveMacro] = tc.macro
			}
			dir := testutil.WriteFiles(t, files)
			a, out, _ := newTestApp(t, &Config{Interactive: true, Dir: dir}, "")

			// --- Act ---
			model := a.interactiveModel(ctxlog.Discard(context.Background()))

			// --- Assert ---
			require.NotNil(t, model)
			assert.Len(t, model.Runs, tc.wantRuns)
			assert.Equal(t, tc.wantError, strings.HasPrefix(out.String(), "error: "))
		})
	}
}

func TestMux(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	m := monitor.New(ctx)
	t.Cleanup(m.Close)
	srv := httptest.NewServer(newMux(m, ctxlog.FromContext(ctx)))
	t.Cleanup(srv.Close)

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	// --- Act ---
	healthStatus, healthBody := get("/health")
	metricsStatus, metricsBody := get("/metrics")

	// --- Assert ---
	assert.Equal(t, http.StatusOK, healthStatus)
	assert.Equal(t, "OK\n", healthBody)
	assert.Equal(t, http.StatusOK, metricsStatus)
	assert.Contains(t, metricsBody, "bremsim_events_processed_total")
}

func TestNewLogger_RenamesErrorKey(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	// --- Act ---
	logger.Info("dropped")
	logger.Warn("kept", "error", "boom")

	// --- Assert ---
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"err":"boom"`)
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, batchErr := NewConfig(Config{})
	_, mixedErr := NewConfig(Config{Interactive: true, MacroPath: "run.hcl"})
	cfg, okErr := NewConfig(Config{MacroPath: "run.hcl"})

	assert.Error(t, batchErr)
	assert.Error(t, mixedErr)
	require.NoError(t, okErr)
	assert.Equal(t, "run.hcl", cfg.MacroPath)
}
