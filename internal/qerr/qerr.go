// Package qerr defines the error kinds raised while compiling a program.
// Every kind is fatal for the enclosing compilation; callers match kinds
// with errors.Is and read the kernel/instruction context from *Error.
package qerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedCircuit   = errors.New("malformed circuit")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrInconsistentBundle = errors.New("inconsistent bundle")
	ErrUnschedulable      = errors.New("unschedulable")
	ErrRegisterExhaustion = errors.New("register exhaustion")
	ErrMismatchedLabel    = errors.New("mismatched label")
	ErrConfiguration      = errors.New("configuration error")
)

// Error is a taxonomy error with optional location context.
type Error struct {
	Kind        error
	Kernel      string
	Instruction string
	Msg         string
}

// New creates an Error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Kernel != "" {
		fmt.Fprintf(&sb, " in kernel '%s'", e.Kernel)
	}
	if e.Instruction != "" {
		fmt.Fprintf(&sb, " at '%s'", e.Instruction)
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// At returns a copy of e annotated with the offending instruction.
func (e *Error) At(instruction string) *Error {
	c := *e
	c.Instruction = instruction
	return &c
}

// InKernel attaches kernel context to err. Taxonomy errors get the kernel
// recorded on the struct (unless already set); anything else is wrapped.
func InKernel(err error, kernel string) error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		if qe.Kernel != "" {
			return err
		}
		c := *qe
		c.Kernel = kernel
		return &c
	}
	return fmt.Errorf("kernel '%s': %w", kernel, err)
}

// Kind returns the taxonomy sentinel err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{
		ErrMalformedCircuit, ErrUnknownInstruction, ErrInconsistentBundle, ErrUnschedulable,
		ErrRegisterExhaustion, ErrMismatchedLabel, ErrConfiguration,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
