package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"decomp-history/core/storage"
	"decomp-history/core/utils"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Cache stores zipped decompilation outputs in a bucket.
type Cache struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewCache creates a Cache for the configured bucket and prefix.
func NewCache(client storage.Client, bucket, prefix string, logger *zap.Logger) *Cache {
	return &Cache{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// listPrefix is the key prefix shared by every cached output.
func (c *Cache) listPrefix() string {
	if c.prefix == "" {
		return ""
	}
	return c.prefix + "/"
}

// ObjectName returns the object key of a version's output.
func (c *Cache) ObjectName(toolchain, id string) string {
	return path.Join(c.prefix, toolchain, id+".zip")
}

// Fetch extracts the cached output of id into dest. It reports false when
// nothing is cached.
func (c *Cache) Fetch(ctx context.Context, toolchain, id, dest string) (bool, error) {
	name := c.ObjectName(toolchain, id)
	if _, err := c.client.StatObject(ctx, c.bucket, name, minio.StatObjectOptions{}); err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	obj, err := c.client.GetObject(ctx, c.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "decomp-artifact-*.zip")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.ReadFrom(obj); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to download %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}

	if err := os.RemoveAll(dest); err != nil {
		return false, err
	}
	if err := utils.Unzip(tmp.Name(), dest); err != nil {
		return false, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return true, nil
}

// Store uploads the output directory of id.
func (c *Cache) Store(ctx context.Context, toolchain, id, dir string) error {
	tmp, err := os.CreateTemp("", "decomp-artifact-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := utils.ZipDir(dir, tmp); err != nil {
		return err
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	name := c.ObjectName(toolchain, id)
	if _, err := c.client.PutObject(ctx, c.bucket, name, tmp, size, minio.PutObjectOptions{
		ContentType: "application/zip",
		UserMetadata: map[string]string{
			"version":   id,
			"toolchain": toolchain,
		},
	}); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}

// Prune deletes cached outputs of every toolchain except keep and returns
// how many objects were removed.
func (c *Cache) Prune(ctx context.Context, keep string) (int, error) {
	keepPrefix := path.Join(c.prefix, keep) + "/"

	type listing struct {
		sent int
		err  error
	}
	objects := make(chan minio.ObjectInfo)
	done := make(chan listing, 1)
	go func() {
		var res listing
		defer func() {
			close(objects)
			done <- res
		}()
		for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: c.listPrefix(), Recursive: true}) {
			if obj.Err != nil {
				res.err = obj.Err
				return
			}
			if strings.HasPrefix(obj.Key, keepPrefix) || !strings.HasSuffix(obj.Key, ".zip") {
				continue
			}
			select {
			case objects <- obj:
				res.sent++
			case <-ctx.Done():
				res.err = ctx.Err()
				return
			}
		}
	}()

	failed := 0
	var removeErr error
	for rerr := range c.client.RemoveObjects(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		c.logger.Warn("Failed to remove cached artifact", zap.String("object", rerr.ObjectName), zap.Error(rerr.Err))
		failed++
		removeErr = rerr.Err
	}
	// Unblock the lister if RemoveObjects stopped reading early.
	for range objects {
	}
	res := <-done

	removed := res.sent - failed
	if res.err != nil {
		return removed, fmt.Errorf("failed to list cached artifacts: %w", res.err)
	}
	if removeErr != nil {
		return removed, fmt.Errorf("failed to remove cached artifacts: %w", removeErr)
	}
	return removed, nil
}
