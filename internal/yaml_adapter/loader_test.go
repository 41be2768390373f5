package yaml_adapter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/hcl_adapter"
	"github.com/vk/bremsim/internal/testutil"
)

const yamlMacro = `
gun:
  particle: e-
  position: [0, 0, -1]
output:
  hit_log: ${OUT_DIR}/outputdata.txt
  upload_timeout: 5s
detector:
  verbose: 2
monitor:
  port: 8080
runs:
  - name: warmup
    events: 10
  - name: production
    events: 1000
    seed: 42
    workers: 4
    print_progress: 100
`

const hclMacro = `
gun {
  particle = "e-"
  position = [0, 0, -1]
}
output {
  hit_log        = "${env.OUT_DIR}/outputdata.txt"
  upload_timeout = "5s"
}
detector {
  verbose = 2
}
monitor {
  port = 8080
}
run "warmup" {
  events = 10
}
run "production" {
  events         = 1000
  seed           = 42
  workers        = 4
  print_progress = 100
}
`

func TestLoad(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{"run.yaml": yamlMacro})

	// --- Act ---
	model, err := NewLoaderWithEnv([]string{"OUT_DIR=/data"}).Load(ctxlog.Discard(context.Background()), filepath.Join(dir, "run.yaml"))

	// --- Assert ---
	require.NoError(t, err)
	want := config.Default()
	want.Gun.Position = []float64{0, 0, -1}
	want.Output.HitLog = "/data/outputdata.txt"
	want.Output.UploadTimeout = 5 * time.Second
	want.Detector.Verbose = 2
	want.Monitor.Port = 8080
	want.Runs = []*config.Run{
		{Name: "warmup", Events: 10},
		{Name: "production", Events: 1000, Seed: 42, Workers: 4, PrintProgress: 100},
	}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MatchesHCL(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	env := []string{"OUT_DIR=/data"}
	dir := testutil.WriteFiles(t, map[string]string{
		"run.yaml": yamlMacro,
		"run.hcl":  hclMacro,
	})

	// --- Act ---
	fromYAML, yamlErr := NewLoaderWithEnv(env).Load(ctx, filepath.Join(dir, "run.yaml"))
	fromHCL, hclErr := hcl_adapter.NewLoaderWithEnv(env).Load(ctx, filepath.Join(dir, "run.hcl"))

	// --- Assert ---
	require.NoError(t, yamlErr)
	require.NoError(t, hclErr)
	if diff := cmp.Diff(fromHCL, fromYAML); diff != "" {
		t.Errorf("YAML and HCL macros differ (-hcl +yaml):\n%s", diff)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "comment only", content: "# nothing to see\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			dir := testutil.WriteFiles(t, map[string]string{"run.yml": tc.content})

			// --- Act ---
			model, err := NewLoader().Load(context.Background(), filepath.Join(dir, "run.yml"))

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, config.Default(), model)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "unknown key", content: "gun:\n  energy: 3\n", wantMsg: "failed to decode YAML file"},
		{name: "wrong type", content: "runs:\n  - events: many\n", wantMsg: "failed to decode YAML file"},
		{name: "negative seed", content: "runs:\n  - seed: -3\n", wantMsg: `run "run0": seed must not be negative`},
		{name: "bad duration", content: "output:\n  upload_timeout: later\n", wantMsg: "output.upload_timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			dir := testutil.WriteFiles(t, map[string]string{"run.yaml": tc.content})

			// --- Act ---
			_, err := NewLoader().Load(context.Background(), filepath.Join(dir, "run.yaml"))

			// --- Assert ---
			assert.ErrorContains(t, err, tc.wantMsg)
		})
	}
}
