package integrationtests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vk/bremsim/internal/app"
	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/hcl_adapter"
	"github.com/vk/bremsim/internal/testutil"
	"github.com/vk/bremsim/internal/yaml_adapter"
)

// result captures everything a batch run left behind.
type result struct {
	Dir    string
	Output string
	Logs   string
	Err    error
}

// runBatch writes files into a fresh directory and executes macro from it
// in batch mode. Macros reach the directory through the DATA_DIR
// environment variable.
func runBatch(t *testing.T, files map[string]string, macro string) result {
	t.Helper()

	dir := testutil.WriteFiles(t, files)
	environ := []string{"DATA_DIR=" + dir}
	yamlLoader := yaml_adapter.NewLoaderWithEnv(environ)
	loaders := config.Loaders{
		".hcl":  hcl_adapter.NewLoaderWithEnv(environ),
		".yaml": yamlLoader,
		".yml":  yamlLoader,
	}

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	cfg := &app.Config{MacroPath: filepath.Join(dir, macro), LogLevel: "debug", LogFormat: "text"}
	err := app.NewApp(strings.NewReader(""), out, logs, cfg, loaders).Run(context.Background())

	t.Cleanup(func() {
		if os.Getenv("BREMSIM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return result{Dir: dir, Output: out.String(), Logs: logs.String(), Err: err}
}
