package models

import "errors"

// ErrNotFound is returned by source and sink lookups that expected a row and
// found none. Callers map it to an empty field; it is never fatal on its own.
var ErrNotFound = errors.New("not found")
