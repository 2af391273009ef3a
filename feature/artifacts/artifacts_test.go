package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"decomp-history/core/storage/mocks"
	"decomp-history/core/version"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testToolchain = "gradle-8.12+classes-3+libraries-1+scripts-abc"

var notFound = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

type countingDriver struct {
	dir   string
	calls int
	err   error
}

func (d *countingDriver) Decompile(ctx context.Context, v version.GameVersion) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	out := filepath.Join(d.dir, "output")
	if err := os.MkdirAll(filepath.Join(out, "src"), 0755); err != nil {
		return "", err
	}
	return out, os.WriteFile(filepath.Join(out, "src", "Main.java"), []byte("// "+v.ID), 0644)
}

func (d *countingDriver) Toolchain() string { return testToolchain }

// memoryClient wires PutObject and GetObject of a mock to an in-memory object.
func memoryClient(t *testing.T) (*mocks.Client, *[]byte) {
	client := new(mocks.Client)
	stored := new([]byte)
	client.On("PutObject", mock.Anything, "cache", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(3).(io.Reader))
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), args.Get(4).(int64))
			*stored = data
		}).
		Return(minio.UploadInfo{}, nil)
	return client, stored
}

func TestCache_ObjectName(t *testing.T) {
	c := NewCache(new(mocks.Client), "cache", "/artifacts/", zap.NewNop())
	assert.Equal(t, "artifacts/"+testToolchain+"/1.17.zip", c.ObjectName(testToolchain, "1.17"))
}

func TestCache_StoreAndFetch(t *testing.T) {
	ctx := context.Background()
	client, stored := memoryClient(t)
	c := NewCache(client, "cache", "artifacts", zap.NewNop())

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "A.java"), []byte("class A {}"), 0644))
	require.NoError(t, c.Store(ctx, testToolchain, "1.17", src))
	require.NotEmpty(t, *stored)

	name := c.ObjectName(testToolchain, "1.17")
	client.On("StatObject", ctx, "cache", name, mock.Anything).Return(minio.ObjectInfo{Key: name}, nil)
	client.On("GetObject", ctx, "cache", name, mock.Anything).Return(io.NopCloser(bytes.NewReader(*stored)), nil)

	dest := filepath.Join(t.TempDir(), "restored")
	hit, err := c.Fetch(ctx, testToolchain, "1.17", dest)
	require.NoError(t, err)
	assert.True(t, hit)

	data, err := os.ReadFile(filepath.Join(dest, "src", "A.java"))
	require.NoError(t, err)
	assert.Equal(t, "class A {}", string(data))
}

func TestCache_FetchMiss(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("StatObject", ctx, "cache", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)

	c := NewCache(client, "cache", "artifacts", zap.NewNop())
	hit, err := c.Fetch(ctx, testToolchain, "1.17", t.TempDir())
	require.NoError(t, err)
	assert.False(t, hit)
	client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCache_Prune(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	listed := make(chan minio.ObjectInfo, 4)
	listed <- minio.ObjectInfo{Key: "artifacts/old-toolchain/1.16.zip"}
	listed <- minio.ObjectInfo{Key: "artifacts/" + testToolchain + "/1.17.zip"}
	listed <- minio.ObjectInfo{Key: "artifacts/old-toolchain/1.17.zip"}
	close(listed)
	client.On("ListObjects", ctx, "cache", mock.Anything).Return((<-chan minio.ObjectInfo)(listed))

	var removed []string
	client.On("RemoveObjects", ctx, "cache", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for obj := range args.Get(2).(<-chan minio.ObjectInfo) {
				removed = append(removed, obj.Key)
			}
		}).
		Return(nil)

	c := NewCache(client, "cache", "artifacts", zap.NewNop())
	n, err := c.Prune(ctx, testToolchain)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"artifacts/old-toolchain/1.16.zip", "artifacts/old-toolchain/1.17.zip"}, removed)
}

func TestCache_PruneWithoutPrefix(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	listed := make(chan minio.ObjectInfo, 3)
	listed <- minio.ObjectInfo{Key: "old-toolchain/1.0.zip"}
	listed <- minio.ObjectInfo{Key: testToolchain + "/1.0.zip"}
	listed <- minio.ObjectInfo{Key: "README"}
	close(listed)
	client.On("ListObjects", ctx, "cache", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "" && opts.Recursive
	})).Return((<-chan minio.ObjectInfo)(listed))

	var removed []string
	client.On("RemoveObjects", ctx, "cache", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for obj := range args.Get(2).(<-chan minio.ObjectInfo) {
				removed = append(removed, obj.Key)
			}
		}).
		Return(nil)

	c := NewCache(client, "cache", "", zap.NewNop())
	assert.Equal(t, testToolchain+"/1.0.zip", c.ObjectName(testToolchain, "1.0"))

	n, err := c.Prune(ctx, testToolchain)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"old-toolchain/1.0.zip"}, removed)
	client.AssertExpectations(t)
}

func TestCache_PruneListError(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)

	listed := make(chan minio.ObjectInfo, 1)
	listed <- minio.ObjectInfo{Err: errors.New("access denied")}
	close(listed)
	client.On("ListObjects", ctx, "cache", mock.Anything).Return((<-chan minio.ObjectInfo)(listed))
	client.On("RemoveObjects", ctx, "cache", mock.Anything, mock.Anything).Return(nil)

	c := NewCache(client, "cache", "artifacts", zap.NewNop())
	_, err := c.Prune(ctx, testToolchain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestDriver_MissBuildsAndStores(t *testing.T) {
	ctx := context.Background()
	client, stored := memoryClient(t)
	client.On("StatObject", ctx, "cache", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)

	next := &countingDriver{dir: t.TempDir()}
	d := NewDriver(next, NewCache(client, "cache", "artifacts", zap.NewNop()), t.TempDir(), zap.NewNop())
	assert.Equal(t, testToolchain, d.Toolchain())

	out, err := d.Decompile(ctx, version.GameVersion{ID: "1.17"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.FileExists(t, filepath.Join(out, "src", "Main.java"))
	assert.NotEmpty(t, *stored)
}

func TestDriver_HitSkipsBuild(t *testing.T) {
	ctx := context.Background()
	client, stored := memoryClient(t)
	cache := NewCache(client, "cache", "artifacts", zap.NewNop())

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "Main.java"), []byte("// cached"), 0644))
	require.NoError(t, cache.Store(ctx, testToolchain, "1.17", src))

	client.On("StatObject", ctx, "cache", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, nil)
	client.On("GetObject", ctx, "cache", mock.Anything, mock.Anything).Return(io.NopCloser(bytes.NewReader(*stored)), nil)

	next := &countingDriver{dir: t.TempDir()}
	workDir := t.TempDir()
	out, err := NewDriver(next, cache, workDir, zap.NewNop()).Decompile(ctx, version.GameVersion{ID: "1.17"})
	require.NoError(t, err)
	assert.Zero(t, next.calls)
	assert.Equal(t, filepath.Join(workDir, "cached-output"), out)

	data, err := os.ReadFile(filepath.Join(out, "src", "Main.java"))
	require.NoError(t, err)
	assert.Equal(t, "// cached", string(data))
}

func TestDriver_StorageFailureFallsBackToBuild(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("StatObject", ctx, "cache", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, errors.New("connection refused"))
	client.On("PutObject", mock.Anything, "cache", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	next := &countingDriver{dir: t.TempDir()}
	d := NewDriver(next, NewCache(client, "cache", "artifacts", zap.NewNop()), t.TempDir(), zap.NewNop())

	_, err := d.Decompile(ctx, version.GameVersion{ID: "1.17"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestDriver_BuildErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("StatObject", ctx, "cache", mock.Anything, mock.Anything).Return(minio.ObjectInfo{}, notFound)

	boom := errors.New("gradle exited with status 1")
	next := &countingDriver{dir: t.TempDir(), err: boom}
	d := NewDriver(next, NewCache(client, "cache", "artifacts", zap.NewNop()), t.TempDir(), zap.NewNop())

	_, err := d.Decompile(ctx, version.GameVersion{ID: "1.17"})
	assert.ErrorIs(t, err, boom)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
