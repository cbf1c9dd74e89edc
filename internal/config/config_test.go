package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"slides/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	c, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Env != "DEV" {
		t.Errorf("env = %q, want DEV", c.Env)
	}
	if c.Listen != ":8080" || c.DB.Driver != "sqlite" {
		t.Errorf("listen=%q driver=%q", c.Listen, c.DB.Driver)
	}
	if c.DB.Path != filepath.Join("data", "slides.db") {
		t.Errorf("db path = %q", c.DB.Path)
	}
	if c.Editor.Reference.Width != 812 || c.Editor.Reference.Height != 460 || c.Editor.FontReference != 812 {
		t.Errorf("reference = %+v font %v", c.Editor.Reference, c.Editor.FontReference)
	}
	if c.Editor.Debounce != 500*time.Millisecond || c.Editor.LoadAttempts != 5 || c.Editor.HistoryLimit != 50 {
		t.Errorf("editor options = %+v", c.Editor)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENV", "qa")
	t.Setenv("QA_DB_DRIVER", "postgres")
	t.Setenv("QA_EDITOR_DEBOUNCE", "250ms")
	t.Setenv("QA_LISTEN", ":9000")

	c, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Env != "QA" || c.DB.Driver != "postgres" || c.Listen != ":9000" {
		t.Errorf("got env=%q driver=%q listen=%q", c.Env, c.DB.Driver, c.Listen)
	}
	if c.Editor.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v", c.Editor.Debounce)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "DOTENVTEST_DB_NAME=deck\nDOTENVTEST_DB_PATH=/tmp/abs.db\n"
	if err := os.WriteFile(filepath.Join(dir, "config", ".env.dotenvtest"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV", "DOTENVTEST")
	t.Cleanup(func() {
		os.Unsetenv("DOTENVTEST_DB_NAME")
		os.Unsetenv("DOTENVTEST_DB_PATH")
	})

	c, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DB.Name != "deck" {
		t.Errorf("db name = %q", c.DB.Name)
	}
	if c.DB.Path != "/tmp/abs.db" {
		t.Errorf("absolute db path rewritten: %q", c.DB.Path)
	}
}
