package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Autopublish.Schedule != DefaultSchedule {
		t.Errorf("expected schedule %q, got %q", DefaultSchedule, cfg.Autopublish.Schedule)
	}
	if len(cfg.Autopublish.ExpireOnTransitions) != 2 ||
		cfg.Autopublish.ExpireOnTransitions[0] != "retract" ||
		cfg.Autopublish.ExpireOnTransitions[1] != "reject" {
		t.Errorf("unexpected expire_on_transitions: %v", cfg.Autopublish.ExpireOnTransitions)
	}
	if !cfg.Catalog.SQLite.WALMode {
		t.Error("expected WAL mode enabled by default")
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled by default")
	}
	if !cfg.Telemetry.Logging.Redact {
		t.Error("expected redaction enabled by default")
	}
	if _, ok := cfg.Workflow.Transition("retract"); !ok {
		t.Error("expected default workflow to define retract")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != first.Server.ListenAddress ||
		cfg.Mail.Port != first.Mail.Port ||
		len(cfg.Autopublish.ExpireOnTransitions) != len(first.Autopublish.ExpireOnTransitions) {
		t.Error("ApplyDefaults changed an already defaulted config")
	}
}

func TestApplyDefaults_KeepsEmptyExpireList(t *testing.T) {
	cfg := &Config{Autopublish: AutopublishConfig{ExpireOnTransitions: []string{}}}
	ApplyDefaults(cfg)

	if len(cfg.Autopublish.ExpireOnTransitions) != 0 {
		t.Errorf("explicitly empty list should stay empty, got %v", cfg.Autopublish.ExpireOnTransitions)
	}
}

func TestStateList_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "scalar", input: "initial_state: private", want: []string{"private"}},
		{name: "list", input: "initial_state: [published, pending]", want: []string{"published", "pending"}},
		{name: "mapping", input: "initial_state: {a: b}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rule ActionRule
			err := yaml.Unmarshal([]byte(tt.input), &rule)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rule.InitialState) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, rule.InitialState)
			}
			for i := range tt.want {
				if rule.InitialState[i] != tt.want[i] {
					t.Errorf("state[%d]: expected %q, got %q", i, tt.want[i], rule.InitialState[i])
				}
			}
		})
	}
}

func TestConfigBuilder(t *testing.T) {
	cfg := NewTestConfig().
		WithSchedule("*/1 * * * *").
		WithEmailLog("admin@example.org").
		Build()

	if cfg.Autopublish.Schedule != "*/1 * * * *" {
		t.Errorf("expected schedule override, got %q", cfg.Autopublish.Schedule)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("builder config should be valid: %v", err)
	}
}
