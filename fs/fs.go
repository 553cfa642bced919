// Package fs manages recordings left on the local filesystem. Recordings are
// located with doublestar glob patterns.
package fs
