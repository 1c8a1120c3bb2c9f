package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when a write violates a unique index, such as
// the one-result-per-(student, course, session) constraint or a course
// code collision. Services translate it into the Conflict taxonomy.
var ErrDuplicate = errors.New("duplicate record")

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
