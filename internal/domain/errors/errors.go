package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrStorageExhausted = errors.New("storage exhausted")
	ErrConnectivity     = errors.New("store unavailable")
	ErrConstraint       = errors.New("constraint violated")
	ErrNotification     = errors.New("notification failed")
	ErrNotApplicable    = errors.New("notification not applicable")
)

// ValidationError describes a rejected input field. Its message is safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError carries the failure class of a persistence adapter together with the tier name.
type StoreError struct {
	Tier string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Tier, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Tier, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Connectivity wraps err as a transient failure of tier.
func Connectivity(tier string, err error) error {
	return &StoreError{Tier: tier, Kind: ErrConnectivity, Err: err}
}

// NotFound reports that tier does not hold the record.
func NotFound(tier string) error {
	return &StoreError{Tier: tier, Kind: ErrNotFound}
}

// Constraint wraps err as a permanent rejection by tier.
func Constraint(tier string, err error) error {
	return &StoreError{Tier: tier, Kind: ErrConstraint, Err: err}
}
