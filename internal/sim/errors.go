package sim

import "errors"

// Blocking errors. All are locally recoverable: the operation is rejected
// and logged, nothing is fatal to the session. Unknown script commands are
// deliberately not errors.
var (
	ErrAssemblyIncomplete = errors.New("assembly incomplete")
	ErrInsufficientThrust = errors.New("thrust-to-weight ratio too low")
	ErrAlreadyCrashed     = errors.New("reset required")
	ErrBusy               = errors.New("interpreter busy")
	ErrUnknownAction      = errors.New("unknown manual action")
)
