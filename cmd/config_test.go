package cmd

import (
	"testing"

	"boq/internal/config"
)

func TestConfigSetPersistsValues(t *testing.T) {
	t.Setenv("BOQ_CONFIG_DIR", t.TempDir())

	if err := configSetCmd.RunE(configSetCmd, []string{"flush.cooldown", "45s"}); err != nil {
		t.Fatalf("set flush.cooldown failed: %v", err)
	}
	if err := configSetCmd.RunE(configSetCmd, []string{"flush.max_attempts", "3"}); err != nil {
		t.Fatalf("set flush.max_attempts failed: %v", err)
	}
	if err := configSetCmd.RunE(configSetCmd, []string{"watch.log_format", "json"}); err != nil {
		t.Fatalf("set watch.log_format failed: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Flush.Cooldown != "45s" {
		t.Errorf("Cooldown = %q, want 45s", cfg.Flush.Cooldown)
	}
	if cfg.Flush.MaxAttempts == nil || *cfg.Flush.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %v, want 3", cfg.Flush.MaxAttempts)
	}
	if cfg.Watch.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.Watch.LogFormat)
	}
}

func TestConfigSetRejectsBadValues(t *testing.T) {
	t.Setenv("BOQ_CONFIG_DIR", t.TempDir())

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown key", "server.port", "8080"},
		{"bad duration", "flush.cooldown", "soon"},
		{"zero attempts", "flush.max_attempts", "0"},
		{"negative attempts", "flush.max_attempts", "-2"},
		{"non-numeric attempts", "flush.max_attempts", "many"},
		{"bad bool", "flush.on_start", "maybe"},
		{"bad log level", "watch.log_level", "loud"},
		{"bad log format", "watch.log_format", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := configSetCmd.RunE(configSetCmd, []string{tt.key, tt.val}); err == nil {
				t.Errorf("set %s=%s succeeded, want error", tt.key, tt.val)
			}
		})
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Flush.Cooldown != "" || cfg.Flush.MaxAttempts != nil {
		t.Errorf("rejected values leaked into config: %+v", cfg.Flush)
	}
}

func TestConfigGetUnknownKey(t *testing.T) {
	t.Setenv("BOQ_CONFIG_DIR", t.TempDir())

	if err := configGetCmd.RunE(configGetCmd, []string{"queue.depth"}); err == nil {
		t.Error("get queue.depth succeeded, want error")
	}
}
