// Package date adds the Date type. Dates are immutable; methods that change
// a date create a new one.
package date

import (
	"time"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/coreext/duration"
	"github.com/zephyrtronium/urbi/internal"

	"gitlab.com/variadico/lctime"
)

// DateKind is the Kind for Date objects.
const DateKind = urbi.BasicKind("Date")

// DefaultFormat is the strftime format of Date asString.
const DefaultFormat = "%Y-%m-%d %H:%M:%S %Z"

// New creates a new Date object with the given time.
func New(vm *urbi.VM, date time.Time) *urbi.Object {
	proto, _ := vm.GetLocalSlot(vm.Global, "Date")
	return vm.ObjectWith(nil, []*urbi.Object{proto}, date, DateKind)
}

// ArgAt returns args[i] as a time.Time. If it is not a Date, the result is
// zero, and an exception is raised in j.
func ArgAt(j *urbi.Job, args []*urbi.Object, i int) (time.Time, *urbi.Object, urbi.Stop) {
	if i >= len(args) {
		r, stop := j.Raisef(urbi.ArityMismatch, "missing argument %d", i)
		return time.Time{}, r, stop
	}
	d, ok := args[i].Value.(time.Time)
	if !ok {
		r, stop := j.Raisef(urbi.BadArgumentType, "argument %d must be Date, not %s", i, j.VM().TypeName(args[i]))
		return time.Time{}, r, stop
	}
	return d, nil, urbi.NoStop
}

func init() {
	internal.Register(initDate)
}

func initDate(vm *urbi.VM) {
	slots := urbi.Slots{
		"+":              vm.NewPrimitive("+", plus),
		"-":              vm.NewPrimitive("-", minus),
		"<":              vm.NewPrimitive("<", less),
		"asFloat":        vm.NewPrimitive("asFloat", asFloat),
		"asString":       vm.NewPrimitive("asString", asString),
		"clock":          vm.NewPrimitive("clock", clock),
		"convertToLocal": vm.NewPrimitive("convertToLocal", convertToLocal),
		"convertToUTC":   vm.NewPrimitive("convertToUTC", convertToUTC),
		"day":            vm.NewPrimitive("day", field(func(t time.Time) int { return t.Day() })),
		"fromFloat":      vm.NewPrimitive("fromFloat", fromFloat),
		"fromString":     vm.NewPrimitive("fromString", fromString),
		"hour":           vm.NewPrimitive("hour", field(func(t time.Time) int { return t.Hour() })),
		"isPast":         vm.NewPrimitive("isPast", isPast),
		"minute":         vm.NewPrimitive("minute", field(func(t time.Time) int { return t.Minute() })),
		"month":          vm.NewPrimitive("month", field(func(t time.Time) int { return int(t.Month()) })),
		"now":            vm.NewPrimitive("now", now),
		"second":         vm.NewPrimitive("second", second),
		"type":           vm.NewString("Date"),
		"year":           vm.NewPrimitive("year", field(func(t time.Time) int { return t.Year() })),
	}
	vm.Install("Date", slots, time.Unix(0, 0).UTC(), DateKind)
}

// field creates a Date method returning one calendar field.
func field(f func(t time.Time) int) urbi.PrimitiveFn {
	return func(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
		d, r, stop := ArgAt(j, args, 0)
		if stop != urbi.NoStop {
			return r, stop
		}
		return j.VM().NewFloat(float64(f(d))), urbi.NoStop
	}
}

// asFloat is a Date method.
//
// asFloat converts the date into seconds since 1970-01-01 00:00:00 UTC.
func asFloat(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	return j.VM().NewFloat(float64(d.UnixNano()) / 1e9), urbi.NoStop
}

// asString is a Date method.
//
// asString converts the date to a string using ANSI C strftime directives.
// See https://godoc.org/github.com/variadico/lctime for the full list of
// supported directives.
func asString(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	format := DefaultFormat
	if len(args) > 1 {
		s, r, stop := j.StringArg(args, 1)
		if stop != urbi.NoStop {
			return r, stop
		}
		format = s
	}
	return j.VM().NewString(lctime.Strftime(format, d)), urbi.NoStop
}

// clock is a Date method.
//
// clock returns the number of seconds since the VM started.
func clock(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	vm := j.VM()
	return vm.NewFloat(time.Since(vm.StartTime).Seconds()), urbi.NoStop
}

// convertToLocal is a Date method.
//
// convertToLocal returns the same instant in the local time zone.
func convertToLocal(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), d.Local()), urbi.NoStop
}

// convertToUTC is a Date method.
//
// convertToUTC returns the same instant in UTC.
func convertToUTC(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), d.UTC()), urbi.NoStop
}

// fromFloat is a Date method.
//
// fromFloat creates a date from seconds since 1970-01-01 00:00:00 UTC.
func fromFloat(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	n, r, stop := j.FloatArg(args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), time.Unix(0, int64(n*1e9)).UTC()), urbi.NoStop
}

// fromString is a Date method.
//
// fromString parses a date from a string in the given strftime format, or in
// DefaultFormat if there is none.
func fromString(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	str, r, stop := j.StringArg(args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	format := DefaultFormat
	if len(args) > 2 {
		if format, r, stop = j.StringArg(args, 2); stop != urbi.NoStop {
			return r, stop
		}
	}
	// Render Go's reference time through the strftime format to get the
	// equivalent Go layout.
	longDate := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.FixedZone("MST", -7*60*60))
	layout := lctime.Strftime(format, longDate)
	v, err := time.Parse(layout, str)
	if err != nil {
		return j.Raisef(urbi.BadArgumentType, "fromString: %q does not match %q: %v", str, format, err)
	}
	return New(j.VM(), v), urbi.NoStop
}

// isPast is a Date method.
func isPast(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	return j.VM().Bool(d.Before(time.Now())), urbi.NoStop
}

// now is a Date method.
//
// now returns the current date.
func now(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	return New(j.VM(), time.Now()), urbi.NoStop
}

// second is a Date method.
//
// second returns the seconds of the minute, with fraction.
func second(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	s := float64(d.Second()) + float64(d.Nanosecond())/1e9
	return j.VM().NewFloat(s), urbi.NoStop
}

// plus is a Date method.
//
// + produces the date that is after the receiver by the given Duration.
func plus(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	dd, r, stop := duration.ArgAt(j, args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), d.Add(dd)), urbi.NoStop
}

// minus is a Date method.
//
// - produces a Date that is before the receiver by the given Duration, or
// produces the Duration between the receiver and the given Date.
func minus(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	if r, stop := j.AssertArgs("-", args, 1, 1); stop != urbi.NoStop {
		return r, stop
	}
	switch dd := args[1].Value.(type) {
	case time.Time:
		return duration.New(j.VM(), d.Sub(dd)), urbi.NoStop
	case time.Duration:
		return New(j.VM(), d.Add(-dd)), urbi.NoStop
	}
	return j.Raisef(urbi.BadArgumentType, "argument 0 to - must be Date or Duration, not %s", j.VM().TypeName(args[1]))
}

// less is a Date method.
func less(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	dd, r, stop := ArgAt(j, args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return j.VM().Bool(d.Before(dd)), urbi.NoStop
}
