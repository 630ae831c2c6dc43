package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled_InstallsNoopProvider(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.noop)
}

func TestProvider_Shutdown_NilReceiver(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProvider_Shutdown_NoopProvider(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))
}
