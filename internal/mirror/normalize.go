package mirror

import (
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Date is a calendar day with no time of day. The mirror stores it as a
// timestamp at midnight UTC.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location. Convert t to the
// shop's zone first.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Kind is the closed set of value shapes the normalizer knows about.
type Kind int

const (
	KindPrimitive Kind = iota // string, bool, numbers, []byte, nil
	KindDecimal               // decimal.Decimal, decimal.NullDecimal
	KindDate                  // Date
	KindDateTime              // time.Time
	KindMapping               // maps with string keys
	KindSequence              // slices and arrays
	KindOther                 // everything else; stringified
)

var (
	timeType        = reflect.TypeOf(time.Time{})
	dateType        = reflect.TypeOf(Date{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	bytesType       = reflect.TypeOf([]byte(nil))
)

// Classify reports which normalization rule applies to v. Pointers are
// classified by what they point at; a nil pointer is a primitive nil.
func Classify(v any) Kind {
	return classify(reflect.ValueOf(v))
}

func classify(rv reflect.Value) Kind {
	rv = indirect(rv)
	if !rv.IsValid() {
		return KindPrimitive
	}
	switch rv.Type() {
	case decimalType, nullDecimalType:
		return KindDecimal
	case dateType:
		return KindDate
	case timeType:
		return KindDateTime
	case bytesType:
		return KindPrimitive
	}
	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindPrimitive
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
	case reflect.Slice, reflect.Array:
		return KindSequence
	}
	return KindOther
}

// Normalize converts v into a value every mirror backend can store. The
// second result is false when v could not be represented at all and should be
// dropped.
func Normalize(v any) (any, bool) {
	return normalize(reflect.ValueOf(v))
}

func normalize(orig reflect.Value) (any, bool) {
	rv := indirect(orig)
	if !rv.IsValid() {
		return nil, true
	}

	switch classify(rv) {
	case KindPrimitive:
		return primitive(rv), true
	case KindDecimal:
		return decimalValue(rv), true
	case KindDate:
		return rv.Interface().(Date).Midnight(), true
	case KindDateTime:
		return rv.Interface().(time.Time).UTC(), true
	case KindMapping:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			if n, ok := normalize(iter.Value()); ok {
				out[iter.Key().String()] = n
			}
		}
		return out, true
	case KindSequence:
		out := make([]any, rv.Len())
		for i := range out {
			// Unrepresentable elements stay as nil so positions are kept.
			out[i], _ = normalize(rv.Index(i))
		}
		return out, true
	default:
		// Stringify the value as given so pointer-receiver methods apply.
		return stringify(orig)
	}
}

// indirect follows pointers and interfaces down to a concrete value.
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// primitive strips named types down to their builtin base so backends see
// plain strings and numbers.
func primitive(rv reflect.Value) any {
	if rv.Type() == bytesType {
		return rv.Bytes()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

func decimalValue(rv reflect.Value) any {
	switch d := rv.Interface().(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	}
	return nil
}

// stringify is the fallback for values outside the known kinds.
func stringify(rv reflect.Value) (s any, ok bool) {
	if !rv.CanInterface() {
		return nil, false
	}
	v := rv.Interface()
	defer func() {
		if recover() != nil {
			s, ok = nil, false
		}
	}()
	switch t := v.(type) {
	case fmt.Stringer:
		return t.String(), true
	case error:
		return t.Error(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
