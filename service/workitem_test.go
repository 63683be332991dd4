package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkItem_ResultSetExactlyOnce(t *testing.T) {
	ctx := context.Background()
	item := NewWorkItem(ctx, "payload")
	assert.Equal(t, "payload", item.Payload())

	item.complete("first", nil)
	item.complete("second", errors.New("ignored"))

	result, err := item.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", result)

	// A second Wait observes the same outcome.
	result, err = item.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", result)
}

func TestWorkItem_WaitHonoursWaiterContext(t *testing.T) {
	item := NewWorkItem(context.Background(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := item.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkItem_NilContextDefaults(t *testing.T) {
	var missing context.Context
	item := NewWorkItem(missing, 1)
	require.NotNil(t, item.Context())
	assert.NoError(t, item.Context().Err())
}
