package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-uhdf/internal/message"
)

var (
	// ErrNoConversion means no conversion path exists between the file and
	// memory datatypes.
	ErrNoConversion = errors.New("no conversion path between datatypes")

	// ErrBuffer means the destination does not match the memory datatype
	// or is too small.
	ErrBuffer = errors.New("buffer does not match memory datatype")

	// ErrShortData means the stored bytes end before the last element.
	ErrShortData = errors.New("not enough source data")
)

// VarLenResolver turns a variable-length descriptor into its bytes.
type VarLenResolver interface {
	Resolve(desc []byte) ([]byte, error)
}

// Number is the set of element types numeric buffers may have.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// IsNumeric reports whether dt is an integer or floating-point type of a
// supported size.
func IsNumeric(dt *message.Datatype) bool {
	switch dt.Class {
	case message.ClassFixedPoint:
		return dt.Size == 1 || dt.Size == 2 || dt.Size == 4 || dt.Size == 8
	case message.ClassFloatPoint:
		return dt.Size == 4 || dt.Size == 8
	}
	return false
}

// Convert converts n elements of file datatype src held in data into buf,
// laid out as memory datatype mem. buf is a numeric slice whose element
// type matches mem, or a []byte for string, reference and 1-byte integer
// memory types. vl resolves variable-length strings and may be nil
// otherwise.
func Convert(src, mem *message.Datatype, data []byte, n int, buf any, vl VarLenResolver) error {
	if len(data) < n*int(src.Size) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortData, n*int(src.Size), len(data))
	}
	switch b := buf.(type) {
	case []int8:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, true)
	case []int16:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, true)
	case []uint16:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, false)
	case []int32:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, true)
	case []uint32:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, false)
	case []int64:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, true)
	case []uint64:
		return numbers(src, mem, data, n, b, message.ClassFixedPoint, false)
	case []float32:
		return numbers(src, mem, data, n, b, message.ClassFloatPoint, true)
	case []float64:
		return numbers(src, mem, data, n, b, message.ClassFloatPoint, true)
	case []byte:
		return bytesInto(src, mem, data, n, b, vl)
	}
	return fmt.Errorf("%w: unsupported buffer %T", ErrBuffer, buf)
}

func numbers[T Number](src, mem *message.Datatype, data []byte, n int, dst []T, class message.DatatypeClass, signed bool) error {
	var zero T
	if mem.Class != class || int(mem.Size) != binary.Size(zero) || (class == message.ClassFixedPoint && mem.Signed != signed) {
		return fmt.Errorf("%w: %T for %s of size %d", ErrBuffer, dst, mem.Class, mem.Size)
	}
	if len(dst) < n {
		return fmt.Errorf("%w: %d slots for %d elements", ErrBuffer, len(dst), n)
	}
	return Numbers(src, data, dst[:n])
}

func bytesInto(src, mem *message.Datatype, data []byte, n int, dst []byte, vl VarLenResolver) error {
	size := int(mem.Size)
	if len(dst) < n*size {
		return fmt.Errorf("%w: %d bytes for %d elements of %d", ErrBuffer, len(dst), n, size)
	}
	switch {
	case mem.Class == message.ClassFixedPoint && size == 1:
		if mem.Signed {
			return fmt.Errorf("%w: []byte for a signed memory type", ErrBuffer)
		}
		return Numbers(src, data, dst[:n])
	case mem.Class == message.ClassString:
		return Strings(src, size, data, dst[:n*size], vl)
	case mem.Class == message.ClassReference:
		if src.Class != message.ClassReference || src.Size != mem.Size {
			return fmt.Errorf("%w: %s to reference", ErrNoConversion, src.Class)
		}
		copy(dst, data[:n*size])
		return nil
	}
	return fmt.Errorf("%w: []byte for %s", ErrBuffer, mem.Class)
}

// Numbers decodes len(dst) elements of the numeric file type src. Values
// outside the destination range wrap the way Go conversions do.
func Numbers[T Number](src *message.Datatype, data []byte, dst []T) error {
	if !IsNumeric(src) {
		return fmt.Errorf("%w: %s of size %d to number", ErrNoConversion, src.Class, src.Size)
	}
	size := int(src.Size)
	if len(data) < size*len(dst) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortData, size*len(dst), len(data))
	}
	order := src.Order()
	for i := range dst {
		u := decode(order, data[i*size:], size)
		switch {
		case src.Class == message.ClassFloatPoint && size == 4:
			dst[i] = T(math.Float32frombits(uint32(u)))
		case src.Class == message.ClassFloatPoint:
			dst[i] = T(math.Float64frombits(u))
		case src.Signed:
			dst[i] = T(signExtend(u, size))
		default:
			dst[i] = T(u)
		}
	}
	return nil
}

func decode(order binary.ByteOrder, b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	}
	return order.Uint64(b)
}

func signExtend(u uint64, size int) int64 {
	shift := uint(64 - 8*size)
	return int64(u<<shift) >> shift
}

// Strings copies string elements of src into consecutive memSize-byte
// slots of dst, truncating longer values and zero-filling shorter ones.
func Strings(src *message.Datatype, memSize int, data, dst []byte, vl VarLenResolver) error {
	if memSize <= 0 {
		return fmt.Errorf("%w: string slot size %d", ErrBuffer, memSize)
	}
	n := len(dst) / memSize
	size := int(src.Size)
	switch {
	case src.Class == message.ClassString:
		for i := 0; i < n; i++ {
			fill(dst[i*memSize:(i+1)*memSize], data[i*size:(i+1)*size])
		}
	case src.IsVarLenString:
		if vl == nil {
			return fmt.Errorf("%w: variable-length string without a heap", ErrNoConversion)
		}
		for i := 0; i < n; i++ {
			s, err := vl.Resolve(data[i*size : (i+1)*size])
			if err != nil {
				return fmt.Errorf("string element %d: %w", i, err)
			}
			fill(dst[i*memSize:(i+1)*memSize], s)
		}
	default:
		return fmt.Errorf("%w: %s to string", ErrNoConversion, src.Class)
	}
	return nil
}

func fill(slot, value []byte) {
	k := copy(slot, value)
	clear(slot[k:])
}
