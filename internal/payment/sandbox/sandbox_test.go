package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/payment"
)

func TestCreateAndCapture(t *testing.T) {
	ctx := context.Background()
	p := New()

	order, err := p.CreateOrder(ctx, payment.OrderRequest{Payer: payment.Payer{Email: "ana@example.com"}})
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)

	capture, err := p.Capture(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, capture.Completed())
	assert.Equal(t, "ana@example.com", capture.Payer.Email)

	again, err := p.Capture(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, capture.CaptureID, again.CaptureID)
	assert.Equal(t, 1, p.Orders())
}

func TestSimulatedFailures(t *testing.T) {
	ctx := context.Background()
	p := New()

	_, err := p.CreateOrder(ctx, payment.OrderRequest{SourceToken: TokenError})
	assert.Error(t, err)

	order, err := p.CreateOrder(ctx, payment.OrderRequest{SourceToken: TokenDeclined})
	require.NoError(t, err)
	capture, err := p.Capture(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, capture.Completed())

	_, err = p.Capture(ctx, "missing")
	assert.Error(t, err)
}

func TestVoidBlocksCapture(t *testing.T) {
	ctx := context.Background()
	p := New()

	order, err := p.CreateOrder(ctx, payment.OrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "CREATED", p.Status(order.ID))

	require.NoError(t, p.Void(ctx, order.ID))
	require.NoError(t, p.Void(ctx, order.ID))
	assert.Equal(t, "VOIDED", p.Status(order.ID))

	_, err = p.Capture(ctx, order.ID)
	assert.Error(t, err)

	captured, err := p.CreateOrder(ctx, payment.OrderRequest{})
	require.NoError(t, err)
	_, err = p.Capture(ctx, captured.ID)
	require.NoError(t, err)
	assert.Error(t, p.Void(ctx, captured.ID))
	assert.Equal(t, payment.CaptureStatusCompleted, p.Status(captured.ID))

	assert.Error(t, p.Void(ctx, "missing"))
}
