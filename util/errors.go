// Package util provides the value types shared across chronofs.
package util

import "errors"

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Path errors
	ErrEmptyPath       = errors.New("empty relative path")
	ErrPathEscapesRoot = errors.New("path escapes the mount root")

	// File and directory errors
	ErrExpectedFile = errors.New("expected file, got directory")
)
