package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned by the engine. Callers match them with
// errors.Is; the returned errors usually wrap them with call detail.
var (
	// ErrInvalidAxis reports an out-of-range or duplicate reduction axis.
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrKernelExecution marks a kernel forward that failed. The engine
	// rolls the dispatch back: tape length and input refcounts are
	// unchanged.
	ErrKernelExecution = errors.New("kernel execution failed")

	// ErrNoGradient reports a gradient walk that reached a kernel
	// without a gradient rule.
	ErrNoGradient = errors.New("no gradient rule for kernel")

	// ErrNestedRecording reports BeginRecording while a session is
	// already open.
	ErrNestedRecording = errors.New("recording already in progress")

	// ErrNotRecording reports EndRecording without an open session.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrNonScalarOutput reports a gradient request whose seed output
	// holds more than one element.
	ErrNonScalarOutput = errors.New("gradient seed requires a one-element output")

	// ErrUnknownKernel reports dispatch of a name missing from the
	// kernel registry.
	ErrUnknownKernel = errors.New("unknown kernel")
)

// KernelError wraps a kernel forward failure with the kernel name.
// errors.Is(err, ErrKernelExecution) matches it; Unwrap exposes the
// underlying cause.
type KernelError struct {
	Kernel string
	Err    error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel %q: %v", e.Kernel, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

func (e *KernelError) Is(target error) bool { return target == ErrKernelExecution }
