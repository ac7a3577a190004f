package network

import (
	"fmt"

	"github.com/katalvlaran/mlnet/mlerr"
)

// Sentinel errors for network operations, each wrapping the shared
// mlerr taxonomy kind so callers can match precisely (errors.Is(err,
// ErrActorNotFound)) or coarsely (errors.Is(err, mlerr.NotFound)).
var (
	ErrActorNotFound = fmt.Errorf("network: actor not found: %w", mlerr.NotFound)
	ErrLayerNotFound = fmt.Errorf("network: layer not found: %w", mlerr.NotFound)
	ErrNodeNotFound  = fmt.Errorf("network: node not found: %w", mlerr.NotFound)
	ErrEdgeNotFound  = fmt.Errorf("network: edge not found: %w", mlerr.NotFound)

	ErrEmptyName  = fmt.Errorf("network: name must not be empty: %w", mlerr.InvalidArgument)
	ErrNilNetwork = fmt.Errorf("network: nil network: %w", mlerr.InvalidArgument)
)

// attrNotDeclared reports an undeclared attribute name for an AttributeStore op.
func attrNotDeclared(name string) error {
	return fmt.Errorf("network: attribute %q not declared: %w", name, mlerr.NotFound)
}

// attrAlreadyDeclared reports a duplicate attribute declaration.
func attrAlreadyDeclared(name string) error {
	return fmt.Errorf("network: attribute %q already declared: %w", name, mlerr.AlreadyExists)
}
