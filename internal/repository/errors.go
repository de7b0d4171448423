package repository

import "errors"

// ErrNotFound is wrapped by repositories when a row does not exist, so
// services can branch with errors.Is instead of matching message text.
var ErrNotFound = errors.New("not found")
