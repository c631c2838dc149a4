// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wiki

import (
	"errors"
	"fmt"
)

// ErrPaginationLoop is returned when the listing API hands back a
// continuation token it already returned in the same enumeration.
var ErrPaginationLoop = errors.New("repeated continuation token")

// TransportError is a network or HTTP-layer failure of one wiki request.
// Status is set for non-2xx responses, Err for everything else.
type TransportError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
