// Package repository holds the MySQL data access for movies, rooms,
// screens, seats, tickets and comments.  Lookups that miss return one of
// the ErrXNotFound values below; each wraps apperr.ErrNotFound so the
// HTTP layer can classify it without knowing about this package.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/theater-tickets/internal/apperr"
)

var (
	ErrMovieNotFound   = fmt.Errorf("movie %w", apperr.ErrNotFound)
	ErrRoomNotFound    = fmt.Errorf("room %w", apperr.ErrNotFound)
	ErrScreenNotFound  = fmt.Errorf("screen %w", apperr.ErrNotFound)
	ErrTicketNotFound  = fmt.Errorf("ticket %w", apperr.ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", apperr.ErrNotFound)
)

// ErrConflict is returned when an insert hits a unique key, such as a
// second movie with the same external id.
var ErrConflict = fmt.Errorf("%w: record already exists", apperr.ErrConstraintViolation)

// ErrSeatsUnavailable is returned by TicketRepo.Reserve when at least one
// of the requested seats was held by someone else at commit time.
var ErrSeatsUnavailable = fmt.Errorf("%w: one or more seats are no longer available", apperr.ErrConstraintViolation)

// ErrTicketVerified is returned when releasing a ticket that has already
// been paid for.
var ErrTicketVerified = fmt.Errorf("%w: ticket is already verified", apperr.ErrConstraintViolation)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the sentinels above.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrConflict
	}
	return err
}
