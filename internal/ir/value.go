package ir

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Key normalizes a primary or foreign key value so that keys read from
// different sources compare equal with ==.
//
// Integers of any width (including named integer types) become int64,
// integral floats become int64, byte slices become strings, times become
// their UTC RFC 3339 form and fmt.Stringer values (UUIDs, for example) become
// their string form. Pointers are dereferenced.
//
// The second result is false for nil values and nil pointers; a nil key never
// matches anything.
func Key(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), true
	case []byte:
		return string(val), true
	case string:
		return val, true
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false
		}
		if rv.Kind() == reflect.Array || rv.Kind() == reflect.Struct {
			return val.String(), true
		}
	}

	rv := reflect.ValueOf(v)
	derefed := false
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
		derefed = true
	}
	if derefed && rv.CanInterface() {
		return Key(rv.Interface())
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u), true
		}
		return u, true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f), true
		}
		return f, true
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	}

	if rv.Type().Comparable() {
		return v, true
	}
	return fmt.Sprint(v), true
}

// KeysEqual reports whether a and b are the same non-nil key after
// normalization.
func KeysEqual(a, b any) bool {
	ka, okA := Key(a)
	kb, okB := Key(b)
	if !okA || !okB {
		return false
	}
	return ka == kb
}
