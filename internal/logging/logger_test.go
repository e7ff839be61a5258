// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	l := WithComponent("recommend")
	l.Info().Str("user_id", "u1").Msg("scored")

	out := buf.String()
	for _, want := range []string{`"component":"recommend"`, `"user_id":"u1"`, `"message":"scored"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestCtxAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"user_id":"user-9"`) {
		t.Errorf("context fields missing: %s", out)
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("RequestIDFromContext on empty context should be empty")
	}
}

func TestSlogHandlerBridgesAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))
	logger.WithGroup("svc").Warn("restarting", "attempt", 3, "name", "learning")

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.attempt":3`, `"svc.name":"learning"`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
