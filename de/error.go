package de

import "github.com/cockroachdb/errors"

// ErrFailed is the single opaque failure signal of the deserialize
// path. It carries no payload so the hot path does no formatting or
// allocation work; callers needing rich diagnostics re-run the input
// through a backend constructed with diagnostics enabled.
var ErrFailed = errors.New("tokdoc: deserialization failed")

// Fail builds a decode failure. With diag off this is exactly
// ErrFailed; with diag on the sentinel is wrapped with minimal
// human-readable context and stays errors.Is-compatible.
func Fail(diag bool, offset int, msg string) error {
	if !diag {
		return ErrFailed
	}
	return errors.Wrapf(ErrFailed, "%s (byte %d)", msg, offset)
}
