// Package repository holds the MySQL access code for the identity tables.
// Lookups that find nothing return ErrNotFound so the identity layer can
// tell a missing account apart from a broken connection.
package repository

import "errors"

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert hits the unique email index.
var ErrEmailExists = errors.New("email already exists")
