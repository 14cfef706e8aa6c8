package rbac

import "errors"

// PermissionError marks an operation the role hierarchy denies. Handlers map
// it to 403 with the denial message, distinct from validation and backend
// failures.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

// Err converts a denied OperationResult into a PermissionError, nil when the
// operation is allowed.
func (r OperationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &PermissionError{Message: r.Message}
}

// IsPermissionError reports whether err is a hierarchy denial.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
