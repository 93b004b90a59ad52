package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), ApplicationFields("app_1", "Acme", "")...).Info("recorded")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldApplicationID] != "app_1" || ctx[FieldCompany] != "Acme" {
		t.Fatalf("unexpected context: %v", ctx)
	}
	if _, ok := ctx[FieldPosition]; ok {
		t.Fatalf("empty position must be omitted")
	}

	// nil falls back to a no-op logger.
	WithFields(nil, zap.String("baz", "qux")).Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  gemini  ", "gemini-2.5-flash")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
	if len(CommonFields("", "")) != 0 {
		t.Fatalf("expected empty fields")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		level   zapcore.Level
		wantErr bool
	}{
		{name: "defaults to info", opts: Options{}, level: zapcore.InfoLevel},
		{name: "debug flag wins", opts: Options{Debug: true, Level: "error"}, level: zapcore.DebugLevel},
		{name: "explicit level", opts: Options{JSON: true, Level: "WARN"}, level: zapcore.WarnLevel},
		{name: "bad level", opts: Options{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := tt.opts
			opts.File = filepath.Join(t.TempDir(), "jobtrail.log")

			l, err := New(opts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.level) {
				t.Fatalf("expected level %s to be enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && l.Core().Enabled(tt.level-1) {
				t.Fatalf("expected level below %s to be disabled", tt.level)
			}
		})
	}
}
