package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_EmptySnapshotIsNoOp(t *testing.T) {
	store := &DB{}

	res, err := store.Reconcile(context.Background(), nil, nil, "https://example.com/lowongan")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Zero(t, res.Upserted)
	assert.Zero(t, res.Deleted)
	assert.Zero(t, res.SuccessfulDetails)
	assert.Zero(t, res.FailedDetails)
}
