// Package autodiff implements forward-mode automatic differentiation to
// second order.
//
// A Value carries a scalar together with its gradient and Hessian with
// respect to the variables declared on an Engine. Every operation applies
// the matching analytic rule (sum, product, quotient, chain) to the operands'
// derivative information and returns a new Value, so an expression built
// from Values yields exact first and second partials in a single pass.
//
//	e := autodiff.New(2)
//	x := e.Var(0, 1.5)
//	y := e.Var(1, 0.3)
//	z := x.Mul(y).Exp()
//	if err := z.Err(); err != nil {
//		// domain error
//	}
//	dzdx := z.Derivative(0)
//	d2zdxdy := z.Second(0, 1)
package autodiff

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Engine declares the independent variables that Values are differentiated
// against. It holds no mutable state and may be shared between goroutines.
type Engine struct {
	n int
}

// New returns an Engine over n variables. It panics if n < 1.
func New(n int) *Engine {
	if n < 1 {
		panic("autodiff: engine needs at least one variable")
	}
	return &Engine{n: n}
}

// Len returns the number of declared variables.
func (e *Engine) Len() int {
	return e.n
}

// Var returns the i-th independent variable evaluated at x.
func (e *Engine) Var(i int, x float64) Value {
	if i < 0 || i >= e.n {
		panic("autodiff: variable index out of range")
	}
	v := e.Const(x)
	v.grad.SetVec(i, 1)
	return v
}

// Const returns a Value with zero derivatives.
func (e *Engine) Const(x float64) Value {
	return Value{
		val:  x,
		grad: mat.NewVecDense(e.n, nil),
		hess: mat.NewSymDense(e.n, nil),
	}
}

// Value is an immutable scalar paired with its gradient and Hessian.
// Values must be created through an Engine; operations between Values of
// Engines with different variable counts panic.
//
// A Value that resulted from a domain violation carries the error; every
// operation involving it propagates that first error.
type Value struct {
	val  float64
	grad *mat.VecDense
	hess *mat.SymDense
	err  error
}

// Val returns the scalar value, or NaN when v carries an error.
func (v Value) Val() float64 {
	if v.err != nil {
		return math.NaN()
	}
	return v.val
}

// Err returns the first domain error met while computing v.
func (v Value) Err() error {
	return v.err
}

// Len returns the number of variables v is differentiated against.
func (v Value) Len() int {
	if v.grad == nil {
		return 0
	}
	return v.grad.Len()
}

// Derivative returns ∂v/∂x_i.
func (v Value) Derivative(i int) float64 {
	if v.err != nil {
		return math.NaN()
	}
	return v.grad.AtVec(i)
}

// Second returns ∂²v/∂x_i∂x_j.
func (v Value) Second(i, j int) float64 {
	if v.err != nil {
		return math.NaN()
	}
	return v.hess.At(i, j)
}

// Gradient copies the gradient into dst, allocating when dst is too short.
func (v Value) Gradient(dst []float64) []float64 {
	n := v.Len()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = v.Derivative(i)
	}
	return dst
}

// Hessian copies the Hessian into dst. If dst is nil a new matrix is
// allocated.
func (v Value) Hessian(dst *mat.SymDense) *mat.SymDense {
	n := v.Len()
	if dst == nil {
		dst = mat.NewSymDense(n, nil)
	}
	if v.err != nil {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				dst.SetSym(i, j, math.NaN())
			}
		}
		return dst
	}
	dst.CopySym(v.hess)
	return dst
}

// varies reports whether v has any non-zero first or second derivative.
func (v Value) varies() bool {
	for _, g := range v.grad.RawVector().Data {
		if g != 0 {
			return true
		}
	}
	for _, h := range v.hess.RawSymmetric().Data {
		if h != 0 {
			return true
		}
	}
	return false
}

// constant returns a Value with the same shape as v, value x and no
// derivatives.
func (v Value) constant(x float64) Value {
	n := v.grad.Len()
	return Value{
		val:  x,
		grad: mat.NewVecDense(n, nil),
		hess: mat.NewSymDense(n, nil),
	}
}
