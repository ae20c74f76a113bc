package address

import "fmt"

// InternalError is the panic value raised for logic defects: unreachable
// branches and broken bookkeeping invariants. It never describes bad input.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal defect: " + e.Msg }

// Defect aborts the current operation with an *InternalError.
func Defect(format string, args ...any) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...)})
}
