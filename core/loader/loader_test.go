package loader_test

import (
	"errors"
	"testing"

	"decomp-history/core/loader"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(fiber.Router) error {
	s.loaded = true
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	status := &stubFeature{name: "status", enabled: true}
	runs := &stubFeature{name: "runs", enabled: false}

	mgr := loader.NewManager(zap.NewNop())
	mgr.Register(status)
	mgr.Register(runs)

	loaded, err := mgr.LoadAll(fiber.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, loaded)
	assert.True(t, status.loaded)
	assert.False(t, runs.loaded)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := loader.NewManager(zap.NewNop())
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})

	_, err := mgr.LoadAll(fiber.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
