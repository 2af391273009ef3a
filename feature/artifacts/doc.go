// Package artifacts caches decompilation output in object storage.
//
// Decompiling one version takes minutes; the output is deterministic per
// version and toolchain, so it is stored as <prefix>/<toolchain>/<id>.zip.
// Driver wraps a decompiler.Driver: a cache hit is extracted instead of
// running the wrapped driver, a miss runs it and uploads the result.
//
// The cache never fails a run. Storage errors are logged and the wrapped
// driver is used; a failure of the wrapped driver is returned unchanged.
package artifacts
