package xlog_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xobs/pkg/context/xctx"
	"github.com/omeyang/xobs/pkg/observability/xlog"
)

func TestEnrichHandler_InjectsContext(t *testing.T) {
	logger, buf := buildJSON(t, xlog.New())

	e := xctx.NewExecution(uuid.New(), "alice", "billing-api")
	ctx, err := xctx.WithExecution(context.Background(), e)
	require.NoError(t, err)
	ctx, err = xctx.WithTraceID(ctx, "0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)

	logger.Info(ctx, "enriched")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", lines[0][xctx.KeyTraceID])
	assert.Equal(t, e.CorrelationID.String(), lines[0][xctx.KeyCorrelationID])
	assert.Equal(t, e.TenantCode.String(), lines[0][xctx.KeyTenantCode])
	assert.Equal(t, "alice", lines[0][xctx.KeyExecutionUser])
	assert.Equal(t, "billing-api", lines[0][xctx.KeyOrigin])
}

func TestEnrichHandler_Disabled(t *testing.T) {
	logger, buf := buildJSON(t, xlog.New().SetEnrich(false))

	ctx, err := xctx.WithTraceID(context.Background(), "trace")
	require.NoError(t, err)
	logger.Info(ctx, "plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], xctx.KeyTraceID)
}

func TestEnrichHandler_EmptyContext(t *testing.T) {
	logger, buf := buildJSON(t, xlog.New())

	logger.Info(context.Background(), "bare")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], xctx.KeyTraceID)
	assert.NotContains(t, lines[0], xctx.KeyCorrelationID)
}

func TestNewEnrichHandler_Nil(t *testing.T) {
	h, err := xlog.NewEnrichHandler(nil)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, xlog.ErrNilHandler)
}

func TestEnrichHandler_WithAttrsKeepsEnrichment(t *testing.T) {
	logger, buf := buildJSON(t, xlog.New())

	ctx, err := xctx.WithSpanID(context.Background(), "b7ad6b7169203331")
	require.NoError(t, err)
	logger.With(slog.String("k", "v")).Info(ctx, "derived")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "b7ad6b7169203331", lines[0][xctx.KeySpanID])
	assert.Equal(t, "v", lines[0]["k"])
}
