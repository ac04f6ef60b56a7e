// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "scoring"})

	log.WithError(errors.New("boom")).Warn("lender skipped", map[string]interface{}{
		"lenderId": "l-1",
		"cause":    errors.New("bad multiplier"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "scoring", ctx["component"])
	assert.Equal(t, "l-1", ctx["lenderId"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "bad multiplier", ctx["cause"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestZap_ReturnsUnderlyingLogger(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Zap(NewZapAdapter(base)))
	assert.NotNil(t, Zap(nil))
}

func TestNew_FallsBackToNop(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/deeper/app.log")
	assert.NotNil(t, l)
}
