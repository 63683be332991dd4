package helpers

import "reflect"

// StrPanic panics with panicMessage if s is empty; otherwise returns s.
// Used for fail-fast validation of required config strings (REDIS_ADDR,
// lock resource names, instance IDs) in constructors.
func StrPanic(s string, panicMessage string) string {
	if s == "" {
		panic(panicMessage)
	}
	return s
}

// NilPanic panics with panicMessage if v is nil (nil interface, pointer,
// slice, map, chan or func, checked via reflect for generic T); otherwise
// returns v unchanged. Used by every service constructor to validate
// injected dependencies at startup rather than failing on first use.
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

// isNil reports whether v is nil or a typed nil pointer/slice/map/chan/func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
