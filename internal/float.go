package internal

import (
	"math"
	"strconv"
)

// FloatKind is the Kind for Float objects. Their values are float64.
const FloatKind = BasicKind("Float")

// NewFloat creates a Float object.
func (vm *VM) NewFloat(v float64) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoFloat}, v, FloatKind)
}

// formatFloat formats integral values without a fractional part and others
// in the shortest representation that round-trips.
func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (vm *VM) initFloat() {
	vm.protoFloat = vm.ObjectWith(nil, []*Object{vm.BaseObject}, 0.0, FloatKind)
	slots := Slots{
		"%":        vm.NewPrimitive("%", floatOp(math.Mod)),
		"*":        vm.NewPrimitive("*", floatOp(func(x, y float64) float64 { return x * y })),
		"**":       vm.NewPrimitive("**", floatOp(math.Pow)),
		"+":        vm.NewPrimitive("+", floatOp(func(x, y float64) float64 { return x + y })),
		"-":        vm.NewPrimitive("-", FloatMinus),
		"/":        vm.NewPrimitive("/", floatOp(func(x, y float64) float64 { return x / y })),
		"<":        vm.NewPrimitive("<", floatCmp(func(x, y float64) bool { return x < y })),
		"<=":       vm.NewPrimitive("<=", floatCmp(func(x, y float64) bool { return x <= y })),
		">":        vm.NewPrimitive(">", floatCmp(func(x, y float64) bool { return x > y })),
		">=":       vm.NewPrimitive(">=", floatCmp(func(x, y float64) bool { return x >= y })),
		"abs":      vm.NewPrimitive("abs", floatFn(math.Abs)),
		"asString": vm.NewPrimitive("asString", FloatAsString),
		"ceil":     vm.NewPrimitive("ceil", floatFn(math.Ceil)),
		"floor":    vm.NewPrimitive("floor", floatFn(math.Floor)),
		"max":      vm.NewPrimitive("max", floatOp(math.Max)),
		"min":      vm.NewPrimitive("min", floatOp(math.Min)),
		"round":    vm.NewPrimitive("round", floatFn(math.Round)),
		"sqrt":     vm.NewPrimitive("sqrt", floatFn(math.Sqrt)),
		"type":     vm.NewString("Float"),
	}
	vm.SetSlots(vm.protoFloat, slots)
	vm.SetSlot(vm.Global, "Float", vm.protoFloat)
}

// floatArgs returns the receiver and first argument as floats.
func (j *Job) floatArgs(args []*Object) (x, y float64, r *Object, stop Stop) {
	if x, r, stop = j.FloatArg(args, 0); stop != NoStop {
		return
	}
	y, r, stop = j.FloatArg(args, 1)
	return
}

// floatOp creates a Float method from a binary operation.
func floatOp(op func(x, y float64) float64) PrimitiveFn {
	return func(j *Job, args []*Object) (*Object, Stop) {
		x, y, r, stop := j.floatArgs(args)
		if stop != NoStop {
			return r, stop
		}
		return j.vm.NewFloat(op(x, y)), NoStop
	}
}

// floatCmp creates a Float method from a comparison.
func floatCmp(cmp func(x, y float64) bool) PrimitiveFn {
	return func(j *Job, args []*Object) (*Object, Stop) {
		x, y, r, stop := j.floatArgs(args)
		if stop != NoStop {
			return r, stop
		}
		return j.vm.Bool(cmp(x, y)), NoStop
	}
}

// floatFn creates a Float method from a unary function.
func floatFn(f func(x float64) float64) PrimitiveFn {
	return func(j *Job, args []*Object) (*Object, Stop) {
		x, r, stop := j.FloatArg(args, 0)
		if stop != NoStop {
			return r, stop
		}
		return j.vm.NewFloat(f(x)), NoStop
	}
}

// FloatMinus is a Float method.
//
// - subtracts its argument, or negates the receiver if there is none.
func FloatMinus(j *Job, args []*Object) (*Object, Stop) {
	if len(args) == 1 {
		x, r, stop := j.FloatArg(args, 0)
		if stop != NoStop {
			return r, stop
		}
		return j.vm.NewFloat(-x), NoStop
	}
	x, y, r, stop := j.floatArgs(args)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(x - y), NoStop
}

// FloatAsString is a Float method.
func FloatAsString(j *Job, args []*Object) (*Object, Stop) {
	x, r, stop := j.FloatArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(formatFloat(x)), NoStop
}
