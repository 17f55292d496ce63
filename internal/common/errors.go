// Package common defines the sentinel errors shared by every layer of the
// PsiCash state engine. Callers should use errors.Is to match these values;
// the underlying cause, when there is one, is wrapped alongside the kind.
package common

import "errors"

var (
	// Input validation errors (nil/empty required input, broken invariants).
	ErrInvalidArgument = errors.New("invalid argument")

	// Storage errors.
	// ErrStorageUnavailable means the location is missing or cannot be created/opened.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStorage means a read or write failed on an already initialized store.
	ErrStorage = errors.New("storage error")

	// Codec errors.
	ErrURLParse      = errors.New("url parse error")
	ErrNoValidTokens = errors.New("no valid tokens")

	// Facade errors.
	ErrNotInitialized = errors.New("not initialized")
)
