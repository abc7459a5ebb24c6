package autodiff

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrDomain is the kind of every error raised when an operation reads
// outside its mathematical domain.
var ErrDomain = errors.New("numeric domain error")

// DomainError describes an elementary operation that could not be
// evaluated.
type DomainError struct {
	Op       string
	Operands []float64
	Reason   string
}

func (e *DomainError) Error() string {
	args := make([]string, len(e.Operands))
	for i, x := range e.Operands {
		args[i] = fmt.Sprintf("%g", x)
	}
	return fmt.Sprintf("%v: %s(%s): %s", ErrDomain, e.Op, strings.Join(args, ", "), e.Reason)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

func domainError(op, reason string, operands ...float64) *DomainError {
	return &DomainError{Op: op, Operands: operands, Reason: reason}
}

// failed returns an errored Value shaped like v.
func (v Value) failed(err error) Value {
	n := v.grad.Len()
	return Value{
		val:  math.NaN(),
		grad: mat.NewVecDense(n, nil),
		hess: mat.NewSymDense(n, nil),
		err:  err,
	}
}

// firstErr returns the first sticky error among vs.
func firstErr(vs ...Value) error {
	for _, v := range vs {
		if v.err != nil {
			return v.err
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// checked rejects results whose value or derivatives are not finite.
func checked(op string, r Value, operands ...float64) Value {
	if !isFinite(r.val) {
		return r.failed(domainError(op, "non-finite result", operands...))
	}
	for _, g := range r.grad.RawVector().Data {
		if !isFinite(g) {
			return r.failed(domainError(op, "non-finite derivative", operands...))
		}
	}
	for _, h := range r.hess.RawSymmetric().Data {
		if !isFinite(h) {
			return r.failed(domainError(op, "non-finite second derivative", operands...))
		}
	}
	return r
}
