// Package duration adds the Duration type. Durations are immutable; the
// arithmetic methods create new ones. sleep accepts them directly.
package duration

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/internal"
)

// DurationKind is the Kind for Duration objects.
const DurationKind = urbi.BasicKind("Duration")

// New creates a new Duration object with the given duration.
func New(vm *urbi.VM, d time.Duration) *urbi.Object {
	proto, _ := vm.GetLocalSlot(vm.Global, "Duration")
	return vm.ObjectWith(nil, []*urbi.Object{proto}, d, DurationKind)
}

// ArgAt returns args[i] as a time.Duration. If it is not a Duration, the
// result is zero, and an exception is raised in j.
func ArgAt(j *urbi.Job, args []*urbi.Object, i int) (time.Duration, *urbi.Object, urbi.Stop) {
	if i >= len(args) {
		r, stop := j.Raisef(urbi.ArityMismatch, "missing argument %d", i)
		return 0, r, stop
	}
	d, ok := args[i].Value.(time.Duration)
	if !ok {
		r, stop := j.Raisef(urbi.BadArgumentType, "argument %d must be Duration, not %s", i, j.VM().TypeName(args[i]))
		return 0, r, stop
	}
	return d, nil, urbi.NoStop
}

func init() {
	internal.Register(initDuration)
}

func initDuration(vm *urbi.VM) {
	slots := urbi.Slots{
		"+":         vm.NewPrimitive("+", plus),
		"-":         vm.NewPrimitive("-", minus),
		"*":         vm.NewPrimitive("*", times),
		"<":         vm.NewPrimitive("<", less),
		"asFloat":   vm.NewPrimitive("asFloat", asFloat),
		"asString":  vm.NewPrimitive("asString", asString),
		"days":      vm.NewPrimitive("days", days),
		"fromFloat": vm.NewPrimitive("fromFloat", fromFloat),
		"hours":     vm.NewPrimitive("hours", hours),
		"minutes":   vm.NewPrimitive("minutes", minutes),
		"seconds":   vm.NewPrimitive("seconds", seconds),
		"type":      vm.NewString("Duration"),
		"years":     vm.NewPrimitive("years", years),
	}
	slots["totalSeconds"] = slots["asFloat"]
	vm.Install("Duration", slots, time.Duration(0), DurationKind)
}

// asFloat is a Duration method.
//
// asFloat returns the duration as the number of seconds it represents.
func asFloat(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	return j.VM().NewFloat(d.Seconds()), urbi.NoStop
}

// fromFloat is a Duration method.
//
// fromFloat creates a duration of the given number of seconds.
func fromFloat(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	n, r, stop := j.FloatArg(args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), time.Duration(n*float64(time.Second))), urbi.NoStop
}

// asString is a Duration method.
//
// asString formats the duration. The format may use the following directives:
//
// 	%Y - Years, with a year defined as 60*60*24*365 seconds.
// 	%y - Four digit years.
// 	%d - Days, with a day defined as 60*60*24 seconds.
// 	%H - Hours.
// 	%M - Minutes.
// 	%S - Seconds, with six-digit fraction.
//
// The default format is "%Y years %d days %H:%M:%S". Years and days never
// account for leap years or leap seconds.
func asString(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	format := "%Y years %d days %H:%M:%S"
	if len(args) > 1 {
		s, r, stop := j.StringArg(args, 1)
		if stop != urbi.NoStop {
			return r, stop
		}
		format = s
	}
	const (
		year = 365 * 24 * time.Hour
		day  = 24 * time.Hour
	)
	rep := strings.NewReplacer(
		"%Y", fmt.Sprintf("%d", d/year),
		"%y", fmt.Sprintf("%04d", d/year),
		"%d", fmt.Sprintf("%02d", d%year/day),
		"%H", fmt.Sprintf("%02d", d%day/time.Hour),
		"%M", fmt.Sprintf("%02d", d%time.Hour/time.Minute),
		"%S", fmt.Sprintf("%09.6f", float64(d%time.Minute)/float64(time.Second)))
	return j.VM().NewString(rep.Replace(format)), urbi.NoStop
}

// part creates a Duration method returning one component of the duration.
func part(f func(d time.Duration) float64) urbi.PrimitiveFn {
	return func(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
		d, r, stop := ArgAt(j, args, 0)
		if stop != urbi.NoStop {
			return r, stop
		}
		return j.VM().NewFloat(f(d)), urbi.NoStop
	}
}

var (
	// days returns the number of days, not including multiples of 365.
	days = part(func(d time.Duration) float64 { return float64(d / (24 * time.Hour) % 365) })

	// hours returns the number of whole hours modulo 24.
	hours = part(func(d time.Duration) float64 { return float64(int64(d.Hours()) % 24) })

	// minutes returns the number of whole minutes modulo 60.
	minutes = part(func(d time.Duration) float64 { return float64(int64(d.Minutes()) % 60) })

	// seconds returns the fractional number of seconds modulo 60.
	seconds = part(func(d time.Duration) float64 { return math.Mod(d.Seconds(), 60) })

	// years returns the number of whole 365-day years.
	years = part(func(d time.Duration) float64 { return float64(d / (24 * 365 * time.Hour)) })
)

// plus is a Duration method.
//
// + adds two durations.
func plus(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	dd, r, stop := ArgAt(j, args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), d+dd), urbi.NoStop
}

// minus is a Duration method.
//
// - subtracts the argument duration from the receiver.
func minus(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	dd, r, stop := ArgAt(j, args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), d-dd), urbi.NoStop
}

// times is a Duration method.
//
// * scales the duration by a Float.
func times(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	n, r, stop := j.FloatArg(args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return New(j.VM(), time.Duration(float64(d)*n)), urbi.NoStop
}

// less is a Duration method.
func less(j *urbi.Job, args []*urbi.Object) (*urbi.Object, urbi.Stop) {
	d, r, stop := ArgAt(j, args, 0)
	if stop != urbi.NoStop {
		return r, stop
	}
	dd, r, stop := ArgAt(j, args, 1)
	if stop != urbi.NoStop {
		return r, stop
	}
	return j.VM().Bool(d < dd), urbi.NoStop
}
