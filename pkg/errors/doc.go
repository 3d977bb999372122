// Package errors provides structured error types for better observability
// and programmatic error handling across benchkit.
//
// Instrument drivers classify their failures with ErrCodeConnection and
// ErrCodeTimeout; registry and contract problems use ErrCodeContractViolation.
// Callers branch on the classification with IsCode, which follows both
// fmt.Errorf("%w") chains and errors.Join trees.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeTimeout,
//	    "instrument did not respond",
//	    ctx.Err(),
//	    map[string]any{
//	        "command": "MEAS:TEMP?",
//	        "port":    "/dev/ttyUSB0",
//	    },
//	)
//
//	if errors.IsCode(err, errors.ErrCodeTimeout) {
//	    // retry policy belongs to the caller
//	}
package errors
