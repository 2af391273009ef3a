// Package utils holds file helpers shared by the decompiler and the
// artifact cache: zipping a directory and extracting an archive safely.
package utils
