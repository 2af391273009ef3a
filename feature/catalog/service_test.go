package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"decomp-history/feature/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const manifestJSON = `{
  "latest": {"release": "1.17.1", "snapshot": "21w37a"},
  "versions": [
    {"id": "21w37a", "type": "snapshot", "url": "u", "time": "2021-09-15T14:04:36+00:00", "releaseTime": "2021-09-15T14:04:36+00:00"},
    {"id": "1.17.1", "type": "release", "url": "u", "time": "2021-07-06T12:01:34+00:00", "releaseTime": "2021-07-06T12:01:34+00:00"},
    {"id": "1.17", "type": "release", "url": "u", "time": "2021-06-08T11:00:40+00:00", "releaseTime": "2021-06-08T11:00:40+00:00"}
  ]
}`

type mockGetter struct {
	mock.Mock
}

func (m *mockGetter) Get(_ context.Context, url string) ([]byte, error) {
	args := m.Called(url)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestVersions(t *testing.T) {
	getter := new(mockGetter)
	getter.On("Get", "http://example/manifest.json").Return([]byte(manifestJSON), nil)

	cachePath := filepath.Join(t.TempDir(), "cache", "version_manifest.json")
	svc := catalog.NewService(getter, "http://example/manifest.json", cachePath, zap.NewNop())

	set, err := svc.Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1.17", "1.17.1", "21w37a"}, set.IDs())

	cached, err := svc.Cached()
	require.NoError(t, err)
	assert.Equal(t, "1.17.1", cached.Latest.Release)
	getter.AssertExpectations(t)
}

func TestVersions_FetchError(t *testing.T) {
	getter := new(mockGetter)
	getter.On("Get", catalog.DefaultManifestURL).Return(nil, errors.New("offline"))

	svc := catalog.NewService(getter, "", "", zap.NewNop())
	_, err := svc.Versions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")

	_, err = svc.Cached()
	assert.Error(t, err)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := catalog.Decode([]byte(`{"versions":[{"id":"","releaseTime":"2021-06-08T11:00:40+00:00"}]}`))
	assert.Error(t, err)

	_, err = catalog.Decode([]byte(`{"versions":[{"id":"1.0"}]}`))
	assert.Error(t, err)

	_, err = catalog.Decode([]byte(`not json`))
	assert.Error(t, err)
}

type slowGetter struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *slowGetter) Get(ctx context.Context, _ string) ([]byte, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		return []byte(manifestJSON), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestFetch_SharesInFlightRequest(t *testing.T) {
	getter := &slowGetter{release: make(chan struct{})}
	svc := catalog.NewService(getter, "", "", zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Fetch(context.Background())
			assert.NoError(t, err)
		}()
	}

	// Let the callers pile up behind the first request.
	time.Sleep(50 * time.Millisecond)
	close(getter.release)
	wg.Wait()

	assert.Equal(t, int32(1), getter.calls.Load())
}

func TestFetch_ContextCancelled(t *testing.T) {
	getter := &slowGetter{release: make(chan struct{})}
	defer close(getter.release)
	svc := catalog.NewService(getter, "", "", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
