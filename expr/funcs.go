package expr

import (
	"math"
	"strings"

	"cogentcore.org/core/base/randx"
)

// maxRangeLen bounds the list produced by range().
const maxRangeLen = 100000

type function struct {
	min, max int // max < 0 means variadic
	// flatten splices list arguments into the argument list
	flatten bool
	call    func(ev *evaluator, args []Value) (Value, error)
}

var functions map[string]function

func init() {
	functions = map[string]function{
		"abs":   unary(math.Abs),
		"ceil":  unary(math.Ceil),
		"floor": unary(math.Floor),
		"fract": unary(func(x float64) float64 { return x - math.Floor(x) }),
		"sign": unary(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		}),
		"sqrt": unaryErr(func(x float64) (float64, error) {
			if x < 0 {
				return 0, newError(ErrDomain, "sqrt of negative number %v", x)
			}
			return math.Sqrt(x), nil
		}),
		"log": unaryErr(func(x float64) (float64, error) {
			if x <= 0 {
				return 0, newError(ErrDomain, "log of non-positive number %v", x)
			}
			return math.Log(x), nil
		}),
		"exp": unary(math.Exp),
		"sin": unary(func(x float64) float64 { return math.Sin(radians(x)) }),
		"cos": unary(func(x float64) float64 { return math.Cos(radians(x)) }),
		"tan": unary(func(x float64) float64 { return math.Tan(radians(x)) }),
		"asin": unaryErr(func(x float64) (float64, error) {
			if x < -1 || x > 1 {
				return 0, newError(ErrDomain, "asin argument %v outside [-1, 1]", x)
			}
			return degrees(math.Asin(x)), nil
		}),
		"acos": unaryErr(func(x float64) (float64, error) {
			if x < -1 || x > 1 {
				return 0, newError(ErrDomain, "acos argument %v outside [-1, 1]", x)
			}
			return degrees(math.Acos(x)), nil
		}),
		"atan": unary(func(x float64) float64 { return degrees(math.Atan(x)) }),
		"atan2": binary(func(y, x float64) (float64, error) {
			return degrees(math.Atan2(y, x)), nil
		}),
		"pow": binary(func(a, b float64) (float64, error) {
			r := math.Pow(a, b)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return 0, newError(ErrDomain, "pow(%v, %v) is not finite", a, b)
			}
			return r, nil
		}),
		"divmod": {min: 2, max: 2, call: fnDivmod},
		"clamp":  {min: 3, max: 3, call: fnClamp},
		"mix":    {min: 3, max: 3, call: fnMix},

		"min":     reduce(func(xs []float64) float64 { return minOf(xs) }),
		"max":     reduce(func(xs []float64) float64 { return maxOf(xs) }),
		"sum":     reduce(sumOf),
		"product": reduce(productOf),
		"mean":    reduce(func(xs []float64) float64 { return sumOf(xs) / float64(len(xs)) }),

		"eq":  {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(a[0].equal(a[1])), nil }},
		"ne":  {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(!a[0].equal(a[1])), nil }},
		"lt":  cmpFunc("lt"),
		"le":  cmpFunc("le"),
		"gt":  cmpFunc("gt"),
		"ge":  cmpFunc("ge"),
		"not": {min: 1, max: 1, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(!a[0].Truthy()), nil }},
		"and": {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(a[0].Truthy() && a[1].Truthy()), nil }},
		"or":  {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(a[0].Truthy() || a[1].Truthy()), nil }},
		"xor": {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(a[0].Truthy() != a[1].Truthy()), nil }},
		"if": {min: 3, max: 3, call: func(_ *evaluator, a []Value) (Value, error) {
			if a[0].Truthy() {
				return a[1], nil
			}
			return a[2], nil
		}},

		"random":  {min: 0, max: 0, call: fnRandom},
		"randint": {min: 2, max: 2, call: fnRandint},
		"gauss":   {min: 2, max: 2, call: fnGauss},
		"range":   {min: 1, max: 3, call: fnRange},

		"addv":   {min: 0, max: -1, flatten: true, call: vectorOp("+")},
		"subv":   {min: 0, max: -1, flatten: true, call: vectorOp("-")},
		"scalev": {min: 1, max: -1, flatten: true, call: fnScalev},
		"head": {min: 0, max: -1, flatten: true, call: func(_ *evaluator, a []Value) (Value, error) {
			if len(a) == 0 {
				return Value{}, newError(ErrEmptyList, "head of empty list")
			}
			return a[0], nil
		}},
		"tail": {min: 0, max: -1, flatten: true, call: func(_ *evaluator, a []Value) (Value, error) {
			if len(a) == 0 {
				return Value{}, newError(ErrEmptyList, "tail of empty list")
			}
			return List(a[1:]...), nil
		}},
		"count": {min: 0, max: -1, flatten: true, call: func(_ *evaluator, a []Value) (Value, error) { return Number(float64(len(a))), nil }},
		"empty": {min: 0, max: -1, flatten: true, call: func(_ *evaluator, a []Value) (Value, error) { return Bool(len(a) == 0), nil }},
		"in":    {min: 1, max: -1, flatten: true, call: fnIn},
		"select": {min: 0, max: -1, flatten: true, call: fnSelect},
		"swap": {min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) { return List(a[1], a[0]), nil }},
		"r2p":  {min: 2, max: 2, flatten: true, call: fnR2P},
		"p2r":  {min: 2, max: 2, flatten: true, call: fnP2R},

		"split":  {min: 2, max: 2, call: fnSplit},
		"splitw": {min: 1, max: 1, call: fnSplitw},
		"trim":   {min: 1, max: 1, call: func(_ *evaluator, a []Value) (Value, error) { return String(strings.TrimSpace(a[0].String())), nil }},
		"join":   {min: 1, max: -1, flatten: true, call: fnJoin},
		"_":      {min: 0, max: -1, call: fnAsText},
	}
}

func arityError(name string, fn function, got int) error {
	switch {
	case fn.max < 0:
		return newError(ErrArity, "%s() takes at least %d argument(s), got %d", name, fn.min, got)
	case fn.min == fn.max:
		return newError(ErrArity, "%s() takes %d argument(s), got %d", name, fn.min, got)
	}
	return newError(ErrArity, "%s() takes %d to %d arguments, got %d", name, fn.min, fn.max, got)
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

func unary(fn func(float64) float64) function {
	return unaryErr(func(x float64) (float64, error) { return fn(x), nil })
}

func unaryErr(fn func(float64) (float64, error)) function {
	return function{min: 1, max: 1, call: func(_ *evaluator, a []Value) (Value, error) {
		return mapNumbers(a[0], fn)
	}}
}

func binary(fn func(a, b float64) (float64, error)) function {
	return function{min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) {
		x, y, err := twoNumbers(a)
		if err != nil {
			return Value{}, err
		}
		r, err := fn(x, y)
		if err != nil {
			return Value{}, err
		}
		return Number(r), nil
	}}
}

func reduce(fn func([]float64) float64) function {
	return function{min: 0, max: -1, flatten: true, call: func(_ *evaluator, a []Value) (Value, error) {
		if len(a) == 0 {
			return Value{}, newError(ErrEmptyList, "reduction over empty list")
		}
		xs, err := numbers(a)
		if err != nil {
			return Value{}, err
		}
		return Number(fn(xs)), nil
	}}
}

func cmpFunc(op string) function {
	return function{min: 2, max: 2, call: func(_ *evaluator, a []Value) (Value, error) {
		return compare(op, a[0], a[1])
	}}
}

func numbers(vs []Value) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, v := range vs {
		f, ok := v.Number()
		if !ok {
			return nil, newError(ErrType, "%q is not a number", v.String())
		}
		out[i] = f
	}
	return out, nil
}

func twoNumbers(a []Value) (float64, float64, error) {
	xs, err := numbers(a[:2])
	if err != nil {
		return 0, 0, err
	}
	return xs[0], xs[1], nil
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

func sumOf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func productOf(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

func fnDivmod(_ *evaluator, a []Value) (Value, error) {
	x, y, err := twoNumbers(a)
	if err != nil {
		return Value{}, err
	}
	if y == 0 {
		return Value{}, newError(ErrDomain, "divmod by zero")
	}
	return Numbers(math.Floor(x/y), floorMod(x, y)), nil
}

func fnClamp(_ *evaluator, a []Value) (Value, error) {
	xs, err := numbers(a)
	if err != nil {
		return Value{}, err
	}
	if xs[1] > xs[2] {
		return Value{}, newError(ErrDomain, "clamp range %v..%v is empty", xs[1], xs[2])
	}
	return Number(math.Min(math.Max(xs[0], xs[1]), xs[2])), nil
}

func fnMix(_ *evaluator, a []Value) (Value, error) {
	xs, err := numbers(a)
	if err != nil {
		return Value{}, err
	}
	return Number(xs[0] + (xs[1]-xs[0])*xs[2]), nil
}

func fnRandom(ev *evaluator, _ []Value) (Value, error) {
	return Number(ev.env.Rand().Float64()), nil
}

func fnRandint(ev *evaluator, a []Value) (Value, error) {
	lo, hi, err := twoNumbers(a)
	if err != nil {
		return Value{}, err
	}
	lo, hi = math.Ceil(lo), math.Floor(hi)
	if lo > hi {
		return Value{}, newError(ErrDomain, "randint range %v..%v is empty", lo, hi)
	}
	if hi-lo >= math.MaxInt64 {
		return Value{}, newError(ErrDomain, "randint range %v..%v too large", lo, hi)
	}
	n := int64(hi-lo) + 1
	if n <= 0 {
		return Value{}, newError(ErrDomain, "randint range %v..%v too large", lo, hi)
	}
	return Number(lo + float64(ev.env.Rand().Int63n(n))), nil
}

func fnGauss(ev *evaluator, a []Value) (Value, error) {
	mean, sigma, err := twoNumbers(a)
	if err != nil {
		return Value{}, err
	}
	if sigma < 0 {
		return Value{}, newError(ErrDomain, "negative sigma %v", sigma)
	}
	return Number(randx.GaussianGen(mean, sigma, ev.env.Rand())), nil
}

func fnRange(_ *evaluator, a []Value) (Value, error) {
	xs, err := numbers(a)
	if err != nil {
		return Value{}, err
	}
	start, end, step := 0.0, 0.0, 1.0
	switch len(xs) {
	case 1:
		end = xs[0]
	case 2:
		start, end = xs[0], xs[1]
	default:
		start, end, step = xs[0], xs[1], xs[2]
	}
	if step == 0 {
		return Value{}, newError(ErrDomain, "range step must not be zero")
	}
	n := math.Ceil((end - start) / step)
	if n > maxRangeLen {
		return Value{}, newError(ErrDomain, "range of %v items exceeds %d", n, maxRangeLen)
	}
	out := make([]float64, 0, max(int(n), 0))
	for i := 0; i < int(n); i++ {
		out = append(out, start+float64(i)*step)
	}
	return Numbers(out...), nil
}

func vectorOp(op string) func(*evaluator, []Value) (Value, error) {
	return func(_ *evaluator, a []Value) (Value, error) {
		if len(a)%2 != 0 {
			return Value{}, newError(ErrArity, "vector operation needs two equal-length halves, got %d items", len(a))
		}
		half := len(a) / 2
		return arith(op, List(a[:half]...), List(a[half:]...))
	}
}

func fnScalev(_ *evaluator, a []Value) (Value, error) {
	return arith("*", a[0], List(a[1:]...))
}

func fnIn(_ *evaluator, a []Value) (Value, error) {
	for _, it := range a[1:] {
		if a[0].equal(it) {
			return Number(1), nil
		}
	}
	return Number(0), nil
}

func fnSelect(_ *evaluator, a []Value) (Value, error) {
	if len(a) == 0 {
		return Value{}, newError(ErrIndex, "select needs an index and a list")
	}
	f, ok := a[0].Number()
	if !ok {
		return Value{}, newError(ErrType, "select index %q is not a number", a[0].String())
	}
	idx := int(f)
	items := a[1:]
	if idx < 0 || idx >= len(items) || float64(idx) != f {
		return Value{}, newError(ErrIndex, "index %v not in list of %d items", f, len(items))
	}
	return items[idx], nil
}

func fnR2P(_ *evaluator, a []Value) (Value, error) {
	x, y, err := twoNumbers(a)
	if err != nil {
		return Value{}, err
	}
	return Numbers(math.Hypot(x, y), degrees(math.Atan2(y, x))), nil
}

func fnP2R(_ *evaluator, a []Value) (Value, error) {
	r, theta, err := twoNumbers(a)
	if err != nil {
		return Value{}, err
	}
	return Numbers(r*math.Cos(radians(theta)), r*math.Sin(radians(theta))), nil
}

func fnSplit(_ *evaluator, a []Value) (Value, error) {
	sep, s := a[0].String(), a[1].String()
	if sep == "" {
		return Value{}, newError(ErrDomain, "split separator must not be empty")
	}
	parts := strings.Split(s, sep)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return Value{kind: KindList, list: out}, nil
}

func fnSplitw(_ *evaluator, a []Value) (Value, error) {
	parts := strings.Fields(a[0].String())
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return Value{kind: KindList, list: out}, nil
}

func fnJoin(_ *evaluator, a []Value) (Value, error) {
	parts := make([]string, len(a)-1)
	for i, it := range a[1:] {
		parts[i] = it.String()
	}
	return String(strings.Join(parts, a[0].String())), nil
}

// fnAsText concatenates its arguments as literal text, undoing the quote
// escaping needed to embed strings in markup attributes.
func fnAsText(_ *evaluator, a []Value) (Value, error) {
	var sb strings.Builder
	for _, it := range a {
		for _, v := range it.Items() {
			sb.WriteString(v.String())
		}
	}
	return Text(Unescape(sb.String())), nil
}

// Unescape replaces \' \" \\ and \n escape sequences.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\\`, `\`, `\n`, "\n")
	return r.Replace(s)
}
