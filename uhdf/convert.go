package uhdf

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// castInto converts src element-wise with Go conversion rules, so integer
// narrowing wraps and float to integer truncates toward zero.
func castInto[S, T Number](src []S, dst []T) {
	for i, v := range src {
		dst[i] = T(v)
	}
}

// convertSlice converts a slice of any Number type into dst.
func convertSlice[T Number](src any, dst []T) error {
	switch s := src.(type) {
	case []uint8:
		castInto(s, dst)
	case []int8:
		castInto(s, dst)
	case []uint16:
		castInto(s, dst)
	case []int16:
		castInto(s, dst)
	case []uint32:
		castInto(s, dst)
	case []int32:
		castInto(s, dst)
	case []uint64:
		castInto(s, dst)
	case []int64:
		castInto(s, dst)
	case []float32:
		castInto(s, dst)
	case []float64:
		castInto(s, dst)
	default:
		return fmt.Errorf("%w: cannot convert %T", ErrUnsupportedType, src)
	}
	return nil
}

// newBuffer allocates n elements of the Go type that holds t. Strings are
// held as bytes.
func newBuffer(t Type, n int) (any, error) {
	switch t {
	case UInt8, String:
		return make([]uint8, n), nil
	case Int8:
		return make([]int8, n), nil
	case UInt16:
		return make([]uint16, n), nil
	case Int16:
		return make([]int16, n), nil
	case UInt32:
		return make([]uint32, n), nil
	case Int32:
		return make([]int32, n), nil
	case UInt64:
		return make([]uint64, n), nil
	case Int64:
		return make([]int64, n), nil
	case Float32:
		return make([]float32, n), nil
	case Float64:
		return make([]float64, n), nil
	}
	return nil, fmt.Errorf("%w: no buffer for %s", ErrUnsupportedType, t)
}

// checkBuffer verifies that buf is a slice of the Go type holding t with
// exactly n elements.
func checkBuffer(t Type, buf any, n int) error {
	want, err := newBuffer(t, 0)
	if err != nil {
		return err
	}
	if reflect.TypeOf(buf) != reflect.TypeOf(want) {
		return fmt.Errorf("%w: %T buffer for %s elements", ErrUnsupportedType, buf, t)
	}
	if have := reflect.ValueOf(buf).Len(); have != n {
		return fmt.Errorf("%w: buffer holds %d elements, selection %d", ErrInvalidSelection, have, n)
	}
	return nil
}

// sdBuffer allocates n elements for an SD number type. The SD reader wants
// []int8 for INT8 and []byte for the unsigned and character byte types.
func sdBuffer(nt sd.NumberType, n int) (any, error) {
	t, err := classifySD(nt)
	if err != nil {
		return nil, err
	}
	return newBuffer(t, n)
}

// cString returns b up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
