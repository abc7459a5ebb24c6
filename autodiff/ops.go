package autodiff

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// chain applies a scalar function with value f, first derivative df and
// second derivative d2f at x.val:
//
//	∇r = f'·∇x
//	Hr = f'·Hx + f''·∇x∇xᵀ
func (x Value) chain(op string, f, df, d2f float64) Value {
	if x.err != nil {
		return x
	}
	if !x.varies() {
		return checked(op, x.constant(f), x.val)
	}
	if !isFinite(df) || !isFinite(d2f) {
		return x.failed(domainError(op, "derivative undefined", x.val))
	}
	n := x.grad.Len()
	g := mat.NewVecDense(n, nil)
	g.ScaleVec(df, x.grad)
	h := mat.NewSymDense(n, nil)
	h.ScaleSym(df, x.hess)
	if d2f != 0 {
		h.SymRankOne(h, d2f, x.grad)
	}
	return checked(op, Value{val: f, grad: g, hess: h}, x.val)
}

// Add returns x + y.
func (x Value) Add(y Value) Value {
	if err := firstErr(x, y); err != nil {
		return x.failed(err)
	}
	n := x.grad.Len()
	g := mat.NewVecDense(n, nil)
	g.AddVec(x.grad, y.grad)
	h := mat.NewSymDense(n, nil)
	h.AddSym(x.hess, y.hess)
	return checked("add", Value{val: x.val + y.val, grad: g, hess: h}, x.val, y.val)
}

// Sub returns x − y.
func (x Value) Sub(y Value) Value {
	if err := firstErr(x, y); err != nil {
		return x.failed(err)
	}
	n := x.grad.Len()
	g := mat.NewVecDense(n, nil)
	g.SubVec(x.grad, y.grad)
	h := mat.NewSymDense(n, nil)
	h.ScaleSym(-1, y.hess)
	h.AddSym(x.hess, h)
	return checked("sub", Value{val: x.val - y.val, grad: g, hess: h}, x.val, y.val)
}

// Mul returns x · y.
//
//	∇(xy) = y∇x + x∇y
//	H(xy) = yHx + xHy + ∇x∇yᵀ + ∇y∇xᵀ
func (x Value) Mul(y Value) Value {
	if err := firstErr(x, y); err != nil {
		return x.failed(err)
	}
	n := x.grad.Len()
	g := mat.NewVecDense(n, nil)
	g.ScaleVec(y.val, x.grad)
	g.AddScaledVec(g, x.val, y.grad)

	h := mat.NewSymDense(n, nil)
	h.ScaleSym(y.val, x.hess)
	hy := mat.NewSymDense(n, nil)
	hy.ScaleSym(x.val, y.hess)
	h.AddSym(h, hy)
	h.RankTwo(h, 1, x.grad, y.grad)
	return checked("mul", Value{val: x.val * y.val, grad: g, hess: h}, x.val, y.val)
}

// Div returns x / y. Division by zero is a domain error.
func (x Value) Div(y Value) Value {
	if err := firstErr(x, y); err != nil {
		return x.failed(err)
	}
	if y.val == 0 {
		return x.failed(domainError("div", "division by zero", x.val, y.val))
	}
	inv := 1 / y.val
	r := y.chain("div", inv, -inv*inv, 2*inv*inv*inv)
	return x.Mul(r)
}

// Neg returns −x.
func (x Value) Neg() Value {
	return x.chain("neg", -x.val, -1, 0)
}

// Scale returns c·x.
func (x Value) Scale(c float64) Value {
	return x.chain("scale", c*x.val, c, 0)
}

// Shift returns x + c.
func (x Value) Shift(c float64) Value {
	if x.err != nil {
		return x
	}
	return checked("shift", Value{val: x.val + c, grad: x.grad, hess: x.hess}, x.val, c)
}

// Square returns x².
func (x Value) Square() Value {
	return x.chain("square", x.val*x.val, 2*x.val, 2)
}

// Pow returns x^p for a constant exponent p. A negative base is only
// accepted with an integer exponent; a zero base is rejected for negative
// exponents and wherever a derivative would be unbounded.
func (x Value) Pow(p float64) Value {
	if x.err != nil {
		return x
	}
	switch {
	case p == 0:
		return x.constant(1)
	case p == 1:
		return x
	case !isFinite(p):
		return x.failed(domainError("pow", "non-finite exponent", x.val, p))
	case x.val < 0 && p != math.Trunc(p):
		return x.failed(domainError("pow", "non-integer power of negative base", x.val, p))
	case x.val == 0 && p < 0:
		return x.failed(domainError("pow", "division by zero", x.val, p))
	}
	f := math.Pow(x.val, p)
	df := p * math.Pow(x.val, p-1)
	d2f := p * (p - 1) * math.Pow(x.val, p-2)
	return x.chain("pow", f, df, d2f)
}

// PowValue returns x^y = exp(y·ln x) for a strictly positive base.
func (x Value) PowValue(y Value) Value {
	if err := firstErr(x, y); err != nil {
		return x.failed(err)
	}
	if x.val <= 0 {
		return x.failed(domainError("pow", "non-positive base", x.val, y.val))
	}
	return y.Mul(x.Log()).Exp()
}

// Exp returns eˣ. Overflow is a domain error.
func (x Value) Exp() Value {
	f := math.Exp(x.val)
	return x.chain("exp", f, f, f)
}

// Log returns ln x for x > 0.
func (x Value) Log() Value {
	if x.err != nil {
		return x
	}
	if x.val <= 0 {
		return x.failed(domainError("log", "non-positive argument", x.val))
	}
	inv := 1 / x.val
	return x.chain("log", math.Log(x.val), inv, -inv*inv)
}

// Sqrt returns √x. A zero argument is accepted only when x carries no
// derivative, since d√x/dx is unbounded there.
func (x Value) Sqrt() Value {
	if x.err != nil {
		return x
	}
	switch {
	case x.val < 0:
		return x.failed(domainError("sqrt", "negative argument", x.val))
	case x.val == 0:
		if x.varies() {
			return x.failed(domainError("sqrt", "derivative undefined at zero", x.val))
		}
		return x.constant(0)
	}
	f := math.Sqrt(x.val)
	return x.chain("sqrt", f, 0.5/f, -0.25/(f*x.val))
}

// NormCDF returns Φ(x), the standard normal cumulative distribution.
func (x Value) NormCDF() Value {
	phi := distuv.UnitNormal.Prob(x.val)
	return x.chain("normcdf", distuv.UnitNormal.CDF(x.val), phi, -x.val*phi)
}

// NormPDF returns φ(x), the standard normal density.
func (x Value) NormPDF() Value {
	phi := distuv.UnitNormal.Prob(x.val)
	return x.chain("normpdf", phi, -x.val*phi, (x.val*x.val-1)*phi)
}
