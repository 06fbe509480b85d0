package logger

import (
	"context"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ctxzap.ToContext(context.Background(), zap.New(core))
	return ctx, logs
}

func TestWithDocumentTagsEveryEntry(t *testing.T) {
	ctx, logs := observedContext()

	ctx = WithDocument(ctx, "doc-42")
	ctxzap.Info(ctx, "first")
	ctxzap.Info(ctx, "second")

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "doc-42", entry.ContextMap()["document_id"])
	}
}

func TestWithActionAndDocumentCompose(t *testing.T) {
	ctx, logs := observedContext()

	ctx = WithAction(WithDocument(ctx, "doc-7"), "DeleteDocument")
	ctxzap.Info(ctx, "deleted")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "doc-7", fields["document_id"])
	assert.Equal(t, "DeleteDocument", fields["action"])
}

func TestAddFieldsDoesNotMutateParentContext(t *testing.T) {
	ctx, logs := observedContext()

	scoped := AddFields(ctx, zap.String("file", "lease.pdf"))
	ctxzap.Info(scoped, "scoped")
	ctxzap.Info(ctx, "parent")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "lease.pdf", entries[0].ContextMap()["file"])
	assert.NotContains(t, entries[1].ContextMap(), "file")
}
