package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sampleConfig struct {
	Addr    string        `envconfig:"ADDR" default:":8080"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Stores  []string      `envconfig:"STORES"`
}

func (c *sampleConfig) Validate() error {
	if c.Timeout > time.Minute {
		return errors.New("timeout too large")
	}
	return nil
}

func TestExportEnvironmentKeepsProcessValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	content := "CFGTEST_FILE_ONLY=from-file\nCFGTEST_SHARED=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_SHARED", "from-process")
	t.Setenv("CFGTEST_FILE_ONLY", "")
	os.Unsetenv("CFGTEST_FILE_ONLY")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment: %v", err)
	}
	if got := os.Getenv("CFGTEST_FILE_ONLY"); got != "from-file" {
		t.Fatalf("file value not exported, got %q", got)
	}
	if got := os.Getenv("CFGTEST_SHARED"); got != "from-process" {
		t.Fatalf("process value overwritten, got %q", got)
	}
}

func TestExportEnvironmentIfExistsIgnoresMissingFile(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing file must be ignored: %v", err)
	}
	if err := exportEnvironmentIfExists(t.TempDir()); err != nil {
		t.Fatalf("directory must be ignored: %v", err)
	}
}

func TestNewProcessesPrefix(t *testing.T) {
	t.Setenv("CFGSAMPLE_ADDR", ":9090")
	t.Setenv("CFGSAMPLE_STORES", "store-1,store-2")

	conf, err := New[sampleConfig]("CFGSAMPLE")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conf.Addr != ":9090" || conf.Timeout != 5*time.Second {
		t.Fatalf("unexpected config: %+v", conf)
	}
	if len(conf.Stores) != 2 || conf.Stores[1] != "store-2" {
		t.Fatalf("unexpected stores: %v", conf.Stores)
	}
}

func TestNewWrapsValidationError(t *testing.T) {
	t.Setenv("CFGBAD_TIMEOUT", "2m")

	_, err := New[sampleConfig]("CFGBAD")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), `prefix="CFGBAD"`) || !strings.Contains(err.Error(), "timeout too large") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMustNewPanicsOnBadValue(t *testing.T) {
	t.Setenv("CFGPANIC_TIMEOUT", "soon")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew[sampleConfig]("CFGPANIC")
}
