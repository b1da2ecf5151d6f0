package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevelFromEnv(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"debug":   logrus.DebugLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
		" DEBUG ": logrus.DebugLevel,
	}
	for env, want := range cases {
		t.Setenv("LOG_LEVEL", env)
		if got := New().GetLevel(); got != want {
			t.Errorf("LOG_LEVEL=%q: level = %v, want %v", env, got, want)
		}
	}
}

func TestWithSessionCarriesIdentifier(t *testing.T) {
	entry := WithSession(logrus.New(), "abc-123")
	if got := entry.Data["session_id"]; got != "abc-123" {
		t.Fatalf("session_id field = %v, want abc-123", got)
	}
}
