package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")
	log.With("component", "cache").Error(ctx, "err", "key", "accounts")

	entries := logs.All()
	require.Len(t, entries, 4)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, int64(1), entries[0].ContextMap()["a"])
	require.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	require.Equal(t, "cache", entries[3].ContextMap()["component"])
	require.Equal(t, "accounts", entries[3].ContextMap()["key"])
}
