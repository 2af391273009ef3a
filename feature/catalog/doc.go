// Package catalog reads the game's version manifest.
//
// The manifest is fetched on every call; the last response is written to a
// cache file so that it can be inspected offline, but planning never reads
// it back. Concurrent callers (the CLI run and the status API can overlap
// inside `serve`) share one in-flight request.
package catalog
