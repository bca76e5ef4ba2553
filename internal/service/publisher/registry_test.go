package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticAdapter struct {
	platform Platform
}

func (a *staticAdapter) PlatformName() Platform { return a.platform }

func (a *staticAdapter) Send(ctx context.Context, credential, destinationID, text string, attachments []string) Outcome {
	return Success(a.platform, destinationID, "1")
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	vk := &staticAdapter{platform: PlatformVK}

	require.NoError(t, r.Register(vk))

	got, err := r.Get(PlatformVK)
	require.NoError(t, err)
	require.Same(t, vk, got)

	_, err = r.Get(PlatformTelegram)
	require.Error(t, err)
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(&staticAdapter{platform: PlatformVK}))

	err := r.Register(&staticAdapter{platform: PlatformVK})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestRegistryPlatforms(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.Empty(t, r.Platforms())

	require.NoError(t, r.Register(&staticAdapter{platform: PlatformVK}))
	require.NoError(t, r.Register(&staticAdapter{platform: PlatformTelegram}))

	require.Equal(t, []Platform{PlatformTelegram, PlatformVK}, r.Platforms())
}
