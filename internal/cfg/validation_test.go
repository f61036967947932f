package cfg

import (
	"strings"
	"testing"
	"time"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		ModelPath:       "models/heart_model.json",
		DatasetPath:     "data/heart.csv",
		HTTPPort:        8501,
		DefaultSeed:     11,
		ContactURL:      "https://example.com/contact",
		LogLevel:        "info",
		LogFormat:       "console",
		LogMaxSizeMB:    50,
		LogMaxBackups:   3,
		LogMaxAgeDays:   28,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	err := validateSettings(settings)
	if err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{
			name:    "missing model path",
			mutate:  func(s *Settings) { s.ModelPath = "" },
			wantErr: "model path cannot be empty",
		},
		{
			name:    "missing dataset path",
			mutate:  func(s *Settings) { s.DatasetPath = "" },
			wantErr: "dataset path cannot be empty",
		},
		{
			name:    "port below range",
			mutate:  func(s *Settings) { s.HTTPPort = 1023 },
			wantErr: "HTTP port must be between",
		},
		{
			name:    "port above range",
			mutate:  func(s *Settings) { s.HTTPPort = 65536 },
			wantErr: "HTTP port must be between",
		},
		{
			name:    "read timeout too short",
			mutate:  func(s *Settings) { s.ReadTimeout = 500 * time.Millisecond },
			wantErr: "read timeout",
		},
		{
			name:    "write timeout too long",
			mutate:  func(s *Settings) { s.WriteTimeout = 2 * time.Minute },
			wantErr: "write timeout",
		},
		{
			name:    "shutdown timeout zero",
			mutate:  func(s *Settings) { s.ShutdownTimeout = 0 },
			wantErr: "shutdown timeout",
		},
		{
			name:    "negative progress delay",
			mutate:  func(s *Settings) { s.ProgressDelay = -time.Second },
			wantErr: "progress delay must be between",
		},
		{
			name: "progress delay exceeds write timeout",
			mutate: func(s *Settings) {
				s.ProgressDelay = 3 * time.Second
				s.WriteTimeout = 2 * time.Second
			},
			wantErr: "must be shorter than write timeout",
		},
		{
			name:    "unknown log level",
			mutate:  func(s *Settings) { s.LogLevel = "verbose" },
			wantErr: "unknown log level",
		},
		{
			name:    "unknown log format",
			mutate:  func(s *Settings) { s.LogFormat = "text" },
			wantErr: "log format must be console or json",
		},
		{
			name: "log file without size",
			mutate: func(s *Settings) {
				s.LogFile = "/tmp/heartd.log"
				s.LogMaxSizeMB = 0
			},
			wantErr: "log max size must be positive",
		},
		{
			name:    "negative backups",
			mutate:  func(s *Settings) { s.LogMaxBackups = -1 },
			wantErr: "log retention values cannot be negative",
		},
		{
			name:    "contact URL without scheme",
			mutate:  func(s *Settings) { s.ContactURL = "example.com/form" },
			wantErr: "contact URL must be an absolute http(s) URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSettings_BoundaryValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"minimum port", func(s *Settings) { s.HTTPPort = 1024 }},
		{"maximum port", func(s *Settings) { s.HTTPPort = 65535 }},
		{"one second timeouts", func(s *Settings) {
			s.ReadTimeout = time.Second
			s.WriteTimeout = time.Minute
			s.ShutdownTimeout = time.Second
		}},
		{"maximum progress delay", func(s *Settings) {
			s.ProgressDelay = 5 * time.Second
			s.WriteTimeout = 30 * time.Second
		}},
		{"no contact URL", func(s *Settings) { s.ContactURL = "" }},
		{"warning alias", func(s *Settings) { s.LogLevel = "warning" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			if err := validateSettings(settings); err != nil {
				t.Errorf("expected boundary value to pass, got error: %v", err)
			}
		})
	}
}
