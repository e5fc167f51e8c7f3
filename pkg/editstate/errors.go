package editstate

import "errors"

var (
	// ErrClosed is returned once the edit context has been discarded.
	ErrClosed = errors.New("editstate: edit context is closed")
	// ErrStaleResult rejects async results superseded by a newer request or
	// by a field change made after the request started.
	ErrStaleResult = errors.New("editstate: async result is stale")
	// ErrForeignField is returned for identifiers bound to another model.
	ErrForeignField = errors.New("editstate: field belongs to a different model")
)
