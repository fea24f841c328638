package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedProvider struct{ name string }

func (p namedProvider) Name() string { return p.name }

func (namedProvider) CreateOrder(context.Context, OrderRequest) (*ProviderOrder, error) {
	return nil, errors.New("not used")
}

func (namedProvider) Capture(context.Context, string) (*Capture, error) {
	return nil, errors.New("not used")
}

func TestSharedRetriesFailuresAndCachesSuccess(t *testing.T) {
	calls := 0
	load := Shared(func(context.Context) (Provider, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("sdk unavailable")
		}
		return namedProvider{name: "square"}, nil
	})

	_, err := load(context.Background())
	require.Error(t, err)

	p, err := load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "square", p.Name())

	_, err = load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
