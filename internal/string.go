package internal

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/language"
)

// StringKind is the Kind for String objects. Their values are Go strings.
const StringKind = BasicKind("String")

// NewString creates a String object.
func (vm *VM) NewString(s string) *Object {
	return vm.ObjectWith(nil, []*Object{vm.protoString}, s, StringKind)
}

// encodings maps the encoding names accepted by String bytes to encoders.
// utf8 is handled without an encoder.
var encodings = map[string]encoding.Encoding{
	"latin1": charmap.Windows1252,
	"utf16":  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf32":  utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
}

func (vm *VM) initString() {
	slots := Slots{
		"+":        vm.NewPrimitive("+", StringPlus),
		"<":        vm.NewPrimitive("<", stringCmp(func(c int) bool { return c < 0 })),
		"<=":       vm.NewPrimitive("<=", stringCmp(func(c int) bool { return c <= 0 })),
		">":        vm.NewPrimitive(">", stringCmp(func(c int) bool { return c > 0 })),
		">=":       vm.NewPrimitive(">=", stringCmp(func(c int) bool { return c >= 0 })),
		"asFloat":  vm.NewPrimitive("asFloat", StringAsFloat),
		"asString": vm.NewPrimitive("asString", StringAsString),
		"bytes":    vm.NewPrimitive("bytes", StringBytes),
		"contains": vm.NewPrimitive("contains", StringContains),
		"size":     vm.NewPrimitive("size", StringSize),
		"split":    vm.NewPrimitive("split", StringSplit),
		"toLower":  vm.NewPrimitive("toLower", StringToLower),
		"toUpper":  vm.NewPrimitive("toUpper", StringToUpper),
		"type":     vm.NewString("String"),
	}
	vm.SetSlots(vm.protoString, slots)
	vm.SetSlot(vm.Global, "String", vm.protoString)
}

// StringPlus is a String method.
//
// + concatenates the receiver with the string form of the argument.
func StringPlus(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	v, r, stop := j.argAt(args, 1)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(s + j.vm.AsString(j, v)), NoStop
}

func stringCmp(ok func(c int) bool) PrimitiveFn {
	return func(j *Job, args []*Object) (*Object, Stop) {
		s, r, stop := j.StringArg(args, 0)
		if stop != NoStop {
			return r, stop
		}
		t, r, stop := j.StringArg(args, 1)
		if stop != NoStop {
			return r, stop
		}
		return j.vm.Bool(ok(strings.Compare(s, t))), NoStop
	}
}

// StringAsString is a String method.
func StringAsString(j *Job, args []*Object) (*Object, Stop) {
	return args[0], NoStop
}

// StringAsFloat is a String method.
//
// asFloat parses the string as a number, returning nil if it is not one.
func StringAsFloat(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return j.vm.Nil, NoStop
	}
	return j.vm.NewFloat(f), NoStop
}

// StringSize is a String method.
//
// size is the number of characters in the string.
func StringSize(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewFloat(float64(utf8.RuneCountInString(s))), NoStop
}

// StringContains is a String method.
func StringContains(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	t, r, stop := j.StringArg(args, 1)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.Bool(strings.Contains(s, t)), NoStop
}

// StringSplit is a String method.
//
// split returns a list of the substrings separated by the argument, or by
// whitespace if there is no argument.
func StringSplit(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	var parts []string
	if len(args) > 1 {
		sep, r, stop := j.StringArg(args, 1)
		if stop != NoStop {
			return r, stop
		}
		parts = strings.Split(s, sep)
	} else {
		parts = strings.Fields(s)
	}
	l := make([]*Object, len(parts))
	for i, p := range parts {
		l[i] = j.vm.NewString(p)
	}
	return j.vm.NewList(l...), NoStop
}

// StringToUpper is a String method.
//
// toUpper returns the string in upper case.
func StringToUpper(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(cases.Upper(language.Und).String(s)), NoStop
}

// StringToLower is a String method.
//
// toLower returns the string in lower case.
func StringToLower(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	return j.vm.NewString(cases.Lower(language.Und).String(s)), NoStop
}

// StringBytes is a String method.
//
// bytes returns the string's encoding as a list of byte values. The optional
// argument names the encoding: utf8 (the default), utf16, utf32, or latin1.
func StringBytes(j *Job, args []*Object) (*Object, Stop) {
	s, r, stop := j.StringArg(args, 0)
	if stop != NoStop {
		return r, stop
	}
	b := []byte(s)
	if len(args) > 1 {
		name, r, stop := j.StringArg(args, 1)
		if stop != NoStop {
			return r, stop
		}
		if name != "utf8" {
			enc, ok := encodings[name]
			if !ok {
				return j.Raisef(BadArgumentType, "bytes: unsupported encoding %q", name)
			}
			var err error
			if b, err = enc.NewEncoder().Bytes(b); err != nil {
				return j.Raisef(LanguageException, "bytes: %v", err)
			}
		}
	}
	l := make([]*Object, len(b))
	for i, c := range b {
		l[i] = j.vm.NewFloat(float64(c))
	}
	return j.vm.NewList(l...), NoStop
}
