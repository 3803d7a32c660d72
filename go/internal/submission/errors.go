package submission

import "errors"

// ErrEmployeeRequired is returned when a termination request names no employee.
var ErrEmployeeRequired = errors.New("employee is required")
