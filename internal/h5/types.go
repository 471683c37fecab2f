package h5

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/message"
)

// Predefined memory datatypes. They are always valid and cannot be closed
// or modified; Tcopy them to derive new types.
const (
	NativeInt8 ID = iota + 1
	NativeUint8
	NativeInt16
	NativeUint16
	NativeInt32
	NativeUint32
	NativeInt64
	NativeUint64
	NativeFloat
	NativeDouble
	// StdRefObj is an 8-byte object reference.
	StdRefObj
	// CS1 is a one-byte NUL-terminated ASCII string.
	CS1
)

var predefined = map[ID]*message.Datatype{
	NativeInt8:   message.NewInteger(1, true),
	NativeUint8:  message.NewInteger(1, false),
	NativeInt16:  message.NewInteger(2, true),
	NativeUint16: message.NewInteger(2, false),
	NativeInt32:  message.NewInteger(4, true),
	NativeUint32: message.NewInteger(4, false),
	NativeInt64:  message.NewInteger(8, true),
	NativeUint64: message.NewInteger(8, false),
	NativeFloat:  message.NewFloat(4),
	NativeDouble: message.NewFloat(8),
	StdRefObj:    {Class: message.ClassReference, Version: 1, Size: 8},
	CS1:          message.NewString(1, message.PadNullTerm, message.CharsetASCII),
}

// Class is a datatype class.
type Class int

const (
	ClassInteger   = Class(message.ClassFixedPoint)
	ClassFloat     = Class(message.ClassFloatPoint)
	ClassTime      = Class(message.ClassTime)
	ClassString    = Class(message.ClassString)
	ClassBitfield  = Class(message.ClassBitfield)
	ClassOpaque    = Class(message.ClassOpaque)
	ClassCompound  = Class(message.ClassCompound)
	ClassReference = Class(message.ClassReference)
	ClassEnum      = Class(message.ClassEnum)
	ClassVlen      = Class(message.ClassVarLen)
	ClassArray     = Class(message.ClassArray)
)

func (c Class) String() string { return message.DatatypeClass(c).String() }

// StrPad is the padding of a fixed-length string type.
type StrPad = message.StringPadding

const (
	StrNullTerm = message.PadNullTerm
	StrNullPad  = message.PadNullPad
	StrSpacePad = message.PadSpacePad
)

// Cset is the character set of a string type.
type Cset = message.CharacterSet

const (
	CsetASCII = message.CharsetASCII
	CsetUTF8  = message.CharsetUTF8
)

type datatype struct {
	dt *message.Datatype
	f  *file
}

func (t *datatype) kind() Kind   { return KindDatatype }
func (t *datatype) owner() *file { return t.f }

// newDatatype registers a copy of dt. The file, if any, is kept open for
// variable-length lookups. Callers hold l.mu.
func (l *Lib) newDatatype(dt *message.Datatype, f *file) ID {
	if f != nil {
		f.ref()
	}
	return l.insert(&datatype{dt: dt.Clone(), f: f})
}

// datatype returns the descriptor of a predefined or opened type.
// Callers hold l.mu.
func (l *Lib) datatype(id ID) (*datatype, error) {
	if dt, ok := predefined[id]; ok {
		return &datatype{dt: dt}, nil
	}
	obj, err := l.lookup(id, KindDatatype)
	if err != nil {
		return nil, err
	}
	return obj.(*datatype), nil
}

// mutable returns an opened, modifiable type. Callers hold l.mu.
func (l *Lib) mutable(id ID) (*message.Datatype, error) {
	if _, ok := predefined[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrImmutable, id)
	}
	t, err := l.datatype(id)
	if err != nil {
		return nil, err
	}
	return t.dt, nil
}

// Tcopy returns a modifiable copy of a datatype.
func (l *Lib) Tcopy(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, err := l.datatype(id)
	if err != nil {
		return Invalid, err
	}
	return l.newDatatype(t.dt, t.f), nil
}

// Tclose closes a datatype ID. Predefined types cannot be closed.
func (l *Lib) Tclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := predefined[id]; ok {
		return fmt.Errorf("%w: %d", ErrImmutable, id)
	}
	return l.remove(id, KindDatatype)
}

func (l *Lib) typeInfo(id ID) (*message.Datatype, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, err := l.datatype(id)
	if err != nil {
		return nil, err
	}
	return t.dt, nil
}

// TgetClass returns the class of a type. Variable-length strings report
// ClassString.
func (l *Lib) TgetClass(id ID) (Class, error) {
	dt, err := l.typeInfo(id)
	if err != nil {
		return -1, err
	}
	if dt.IsVarLenString {
		return ClassString, nil
	}
	return Class(dt.Class), nil
}

// TgetSize returns the size in bytes of one element.
func (l *Lib) TgetSize(id ID) (int, error) {
	dt, err := l.typeInfo(id)
	if err != nil {
		return 0, err
	}
	return int(dt.Size), nil
}

// TgetSign reports whether an integer type is signed.
func (l *Lib) TgetSign(id ID) (bool, error) {
	dt, err := l.typeInfo(id)
	if err != nil {
		return false, err
	}
	if dt.Class != message.ClassFixedPoint {
		return false, fmt.Errorf("%w: sign of a %s type", ErrUnsupported, dt.Class)
	}
	return dt.Signed, nil
}

// TisVariableStr reports whether a type is a variable-length string.
func (l *Lib) TisVariableStr(id ID) (bool, error) {
	dt, err := l.typeInfo(id)
	if err != nil {
		return false, err
	}
	return dt.IsVarLenString, nil
}

// TsetSize sets the element size. A variable-length string becomes a
// fixed-length string of that size.
func (l *Lib) TsetSize(id ID, size int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	dt, err := l.mutable(id)
	if err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("%w: size %d", ErrUnsupported, size)
	}
	if dt.IsVarLenString {
		dt.Class = message.ClassString
		dt.IsVarLenString = false
	}
	dt.Size = uint32(size)
	return nil
}

func (l *Lib) setString(id ID, set func(*message.Datatype)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	dt, err := l.mutable(id)
	if err != nil {
		return err
	}
	if !dt.IsString() {
		return fmt.Errorf("%w: string property on a %s type", ErrUnsupported, dt.Class)
	}
	set(dt)
	return nil
}

// TsetStrpad sets the padding of a string type.
func (l *Lib) TsetStrpad(id ID, pad StrPad) error {
	return l.setString(id, func(dt *message.Datatype) { dt.StringPadding = pad })
}

// TsetCset sets the character set of a string type.
func (l *Lib) TsetCset(id ID, cset Cset) error {
	return l.setString(id, func(dt *message.Datatype) { dt.CharSet = cset })
}
