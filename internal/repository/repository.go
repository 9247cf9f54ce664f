// Package repository contains the data access layer. Postgres repositories
// own the profile, provider-link, and wallet rows; Mongo repositories own
// credential accounts, sessions, reset tokens, and activity logs.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNoFieldsToUpdate is returned by partial updates when every optional
// field is nil.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
