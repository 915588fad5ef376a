package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn is a function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName resolves a printable name for a function value.
// Named function types report the type name, everything else falls back
// to the runtime symbol with the package path stripped.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()

	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}

	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = strings.TrimSuffix(name[lastDot+1:], "-fm")
	}
	return name
}

// IsRefinedType reports whether value is exactly the type R.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}

// ResultImplements reports whether any result of the given function
// implements interface T. The executor uses it to spot handoff tools
// that return an agent.
func ResultImplements[T any](function any) bool {
	if function == nil {
		return false
	}

	var ftpe reflect.Type
	switch ft := function.(type) {
	case reflect.Type:
		ftpe = ft
	default:
		ftpe = reflect.TypeOf(function)
	}
	if ftpe.Kind() != reflect.Func {
		return false
	}

	iface := reflect.TypeOf((*T)(nil)).Elem()
	for i := 0; i < ftpe.NumOut(); i++ {
		if ftpe.Out(i).Implements(iface) {
			return true
		}
	}
	return false
}
