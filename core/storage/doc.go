// Package storage wraps the MinIO client for the decompilation artifact
// cache. It works against AWS S3 and self-hosted MinIO alike.
//
// The Client interface lists only the operations the cache needs, so
// tests can substitute core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket); err != nil {
//	    return err
//	}
package storage
