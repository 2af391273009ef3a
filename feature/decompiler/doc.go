// Package decompiler turns one game version into a directory of decompiled
// source.
//
// The Driver interface is what the repository writer depends on. The
// production implementation, GradleDriver, prepares a Gradle work area with
// embedded build scripts, downloads the Gradle distribution on first use
// and runs the unpackSourcesIntoKnownDir and exportLibraries tasks. Its
// output directory holds:
//
//	src/            decompiled classes
//	libraries.txt   the version's runtime libraries
//
// Each driver reports a Toolchain string. Entries committed under a
// different toolchain are treated as stale and rebuilt.
package decompiler
