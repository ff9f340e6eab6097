// Package repository implements all database queries for the event planning
// service. It uses pgx directly (no ORM) for transparency and performance.
package repository

import "errors"

// ErrNotFound is returned when a requested resource does not exist or does
// not belong to the caller's tenant.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a unique
// constraint, e.g. a duplicate category name within a tenant.
var ErrConflict = errors.New("already exists")
