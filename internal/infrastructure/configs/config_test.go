package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Chat.TypingTimeout != 3*time.Second {
		t.Errorf("expected 3s typing timeout, got %s", cfg.Chat.TypingTimeout)
	}
	if cfg.Chat.SendBufferSize != 64 {
		t.Errorf("expected send buffer 64, got %d", cfg.Chat.SendBufferSize)
	}
	if !cfg.Chat.HistoryReplay {
		t.Error("expected history replay enabled by default")
	}
	if cfg.AMQP.Enabled {
		t.Error("expected broadcast bus disabled by default")
	}
	if cfg.Mongo.Enabled {
		t.Error("expected audit log disabled by default")
	}
	if cfg.Logging.Logger != "zap" {
		t.Errorf("expected zap logger by default, got %q", cfg.Logging.Logger)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
http:
  port: 9090
chat:
  typing_timeout: 5s
  history_replay: false
rateLimiter:
  requestsPerTimeFrame: 10
  timeFrame: 30s
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Chat.TypingTimeout != 5*time.Second {
		t.Errorf("expected 5s typing timeout, got %s", cfg.Chat.TypingTimeout)
	}
	if cfg.Chat.HistoryReplay {
		t.Error("expected history replay disabled")
	}
	if cfg.RateLimiter.RequestsPerTimeFrame != 10 {
		t.Errorf("expected 10 requests per timeframe, got %d", cfg.RateLimiter.RequestsPerTimeFrame)
	}
	// Untouched keys keep their defaults.
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %q", cfg.HTTP.Host)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("CHAT_TYPING_TIMEOUT_SECONDS", "10")
	t.Setenv("AMQP_URI", "amqp://broker:5672/")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.HTTP.Port)
	}
	if cfg.Chat.TypingTimeout != 10*time.Second {
		t.Errorf("expected 10s typing timeout, got %s", cfg.Chat.TypingTimeout)
	}
	if !cfg.AMQP.Enabled || cfg.AMQP.URI != "amqp://broker:5672/" {
		t.Errorf("expected AMQP enabled via env, got %+v", cfg.AMQP)
	}
	if !cfg.Mongo.Enabled || cfg.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("expected Mongo enabled via env, got %+v", cfg.Mongo)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}
