// Package apperr defines the error kinds shared by every layer of the
// service.  Lower layers wrap one of these sentinels with context using
// fmt.Errorf("...: %w", ...) and callers classify the result with
// errors.Is.  Handlers translate each kind into an HTTP status.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports malformed input such as a non-positive
	// seat count or an unknown bundle tier.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConstraintViolation reports that a seat selection rule or a
	// ticket state transition rule was broken.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound reports a ticket, seat, screen or movie lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrPaymentNotComplete reports a payment session that has not
	// finished at confirmation time.
	ErrPaymentNotComplete = errors.New("payment not complete")

	// ErrDependencyUnavailable reports a failed call to the catalog, the
	// payment processor or another external collaborator.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Wrap annotates kind with a formatted message while keeping kind
// reachable through errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind returns the sentinel err was built from, or nil when err does not
// belong to the taxonomy.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidArgument,
		ErrConstraintViolation,
		ErrNotFound,
		ErrPaymentNotComplete,
		ErrDependencyUnavailable,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
