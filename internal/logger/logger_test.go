package logger

import (
	"errors"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{name: "development mode", debug: true},
		{name: "production mode", debug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger() error = %v, want nil", err)
			}
			if log == nil {
				t.Fatal("NewLogger() returned nil logger")
			}

			log.Info("test message")

			// Sync may fail on non-file outputs in test environments
			_ = log.Sync()
		})
	}
}

func TestNewNopLogger(t *testing.T) {
	log := NewNopLogger()
	if log == nil {
		t.Fatal("NewNopLogger() returned nil")
	}

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error", Error(errors.New("boom")))

	withLogger := log.With(
		String("niche", "technology"),
		Int("count", 3),
		Duration("elapsed", time.Second),
	)
	if withLogger == nil {
		t.Fatal("With() returned nil")
	}
	withLogger.Info("chained")
}
