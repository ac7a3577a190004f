// Package mlerr declares the error-kind taxonomy shared by every mlnet
// package: NotFound, AlreadyExists, InvalidArgument, NumericFailure, and
// OutOfMemory. Packages wrap these sentinels with fmt.Errorf("%w") inside
// their own, more specific sentinels (see network.ErrActorNotFound, for
// example), so callers can match either the precise error or the coarse
// kind via errors.Is.
package mlerr

import "errors"

var (
	// NotFound marks a reference to a non-existing actor/layer/node/edge/attribute.
	NotFound = errors.New("mlnet: not found")

	// AlreadyExists marks a duplicate declaration (e.g. an attribute name).
	AlreadyExists = errors.New("mlnet: already exists")

	// InvalidArgument marks a parameter outside its declared range.
	InvalidArgument = errors.New("mlnet: invalid argument")

	// NumericFailure marks an iterative numeric procedure that did not converge.
	NumericFailure = errors.New("mlnet: numeric procedure did not converge")

	// OutOfMemory marks a failed allocation for a matrix or dense build.
	OutOfMemory = errors.New("mlnet: allocation failed")
)
