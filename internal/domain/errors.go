// Package domain defines the core types of the price-reconciliation engine
// and the interfaces its external collaborators must satisfy.
package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a well-formed error payload from the odds feed
	// (rate-limit or plan message instead of data). Responses carrying it
	// are never cached.
	ErrUpstream = errors.New("upstream error")
)
