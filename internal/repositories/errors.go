package repositories

import "errors"

// ErrNotFound is returned (wrapped) when no row matches the lookup.
var ErrNotFound = errors.New("record not found")
