package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := LoadFrom(map[string]string{"DATABASE_URL": "postgres://localhost/realyou"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != "8080" || c.Server.Env != EnvDevelopment {
		t.Errorf("server defaults: %+v", c.Server)
	}
	if c.Server.FrontendURL != "http://localhost:5173" {
		t.Errorf("frontend url: %q", c.Server.FrontendURL)
	}
	if c.Worker.PollInterval != 30*time.Second || c.Worker.JobTimeout != 2*time.Minute {
		t.Errorf("worker defaults: %+v", c.Worker)
	}
	if !c.Database.AutoMigrate {
		t.Error("auto-migrate should default to true")
	}
	if c.Server.PDFCacheSize != 256 {
		t.Errorf("pdf cache size: %d", c.Server.PDFCacheSize)
	}
}

func TestLoadFrom_ParsesValues(t *testing.T) {
	c, err := LoadFrom(map[string]string{
		"DATABASE_URL":  "postgres://localhost/realyou",
		"CORS_ORIGINS":  "https://realyou.app,https://www.realyou.app",
		"POLL_INTERVAL": "5s",
		"WORKER_COUNT":  "7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Server.CORSOrigins) != 2 || c.Server.CORSOrigins[1] != "https://www.realyou.app" {
		t.Errorf("cors origins: %v", c.Server.CORSOrigins)
	}
	if c.Worker.PollInterval != 5*time.Second || c.Worker.Count != 7 {
		t.Errorf("worker: %+v", c.Worker)
	}
}

func TestLoadFrom_JoinsAllProblems(t *testing.T) {
	_, err := LoadFrom(map[string]string{
		"ENV":          "production",
		"PORT":         "http",
		"WORKER_COUNT": "0",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{
		"PORT must be a TCP port",
		"DATABASE_URL",
		"STRIPE_SECRET_KEY",
		"STRIPE_WEBHOOK_SECRET",
		"RESEND_API_KEY",
		"WORKER_COUNT",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoadFrom_RejectsUnknownEnv(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DATABASE_URL": "x", "ENV": "prod"})
	if err == nil || !strings.Contains(err.Error(), "ENV must be") {
		t.Errorf("expected ENV error, got %v", err)
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DATABASE_URL": "x", "JOB_TIMEOUT": "soon"})
	if err == nil || !strings.Contains(err.Error(), "config: parse env") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadDotEnv_NeverOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	data := "# comment\nREALYOU_TEST_A=\"from file\"\nexport REALYOU_TEST_B='quoted'\nREALYOU_TEST_C=file\nnot a pair\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REALYOU_TEST_C", "from env")
	// Register cleanup for the keys the loader sets.
	t.Setenv("REALYOU_TEST_A", "")
	os.Unsetenv("REALYOU_TEST_A")
	t.Setenv("REALYOU_TEST_B", "")
	os.Unsetenv("REALYOU_TEST_B")

	loadDotEnv(path)

	if got := os.Getenv("REALYOU_TEST_A"); got != "from file" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("REALYOU_TEST_B"); got != "quoted" {
		t.Errorf("B = %q", got)
	}
	if got := os.Getenv("REALYOU_TEST_C"); got != "from env" {
		t.Errorf("C = %q", got)
	}
}
