package h5

import (
	"fmt"

	"github.com/robert-malhotra/go-uhdf/internal/message"
)

type attribute struct {
	f   *file
	msg *message.Attribute
}

func (a *attribute) kind() Kind   { return KindAttribute }
func (a *attribute) owner() *file { return a.f }

// attributes returns the attribute messages of a file (its root group),
// group or dataset, in header order. Callers hold l.mu.
func (l *Lib) attributes(obj ID) (*file, []*message.Attribute, error) {
	var (
		f    *file
		addr uint64
	)
	switch o := l.objs[obj].(type) {
	case *file:
		f, addr = o, o.rootAddr()
	case *group:
		f, addr = o.f, o.addr
	case *dataset:
		f, addr = o.f, o.addr
	case nil:
		return nil, nil, fmt.Errorf("%w: %d", ErrBadID, obj)
	default:
		return nil, nil, fmt.Errorf("%w: a %s has no attributes", ErrWrongKind, o.kind())
	}
	h, err := f.header(addr)
	if err != nil {
		return nil, nil, err
	}
	attrs, _ := h.Attributes()
	if len(attrs) == 0 && f.dense(h, message.TypeAttributeInfo) {
		return nil, nil, fmt.Errorf("%w: dense attribute storage at 0x%x", ErrUnsupported, addr)
	}
	return f, attrs, nil
}

// AgetNumAttrs returns the number of attributes attached to obj.
func (l *Lib) AgetNumAttrs(obj ID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, attrs, err := l.attributes(obj)
	return len(attrs), err
}

// AgetNameByIdx returns the name of attribute idx in creation order.
func (l *Lib) AgetNameByIdx(obj ID, idx int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, attrs, err := l.attributes(obj)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(attrs) {
		return "", fmt.Errorf("%w: attribute index %d of %d", ErrNotFound, idx, len(attrs))
	}
	return attrs[idx].Name, nil
}

// Aopen opens the attribute name of obj.
func (l *Lib) Aopen(obj ID, name string) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, attrs, err := l.attributes(obj)
	if err != nil {
		return Invalid, err
	}
	for _, a := range attrs {
		if a.Name == name {
			f.ref()
			return l.insert(&attribute{f: f, msg: a}), nil
		}
	}
	return Invalid, fmt.Errorf("attribute %q: %w", name, ErrNotFound)
}

// Aclose closes an attribute ID.
func (l *Lib) Aclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(id, KindAttribute)
}

func (l *Lib) attribute(id ID) (*attribute, error) {
	obj, err := l.lookup(id, KindAttribute)
	if err != nil {
		return nil, err
	}
	return obj.(*attribute), nil
}

// AgetSpace returns a copy of the attribute's dataspace.
func (l *Lib) AgetSpace(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.attribute(id)
	if err != nil {
		return Invalid, err
	}
	return l.insert(spaceFromMessage(a.msg.Dataspace)), nil
}

// AgetType returns a copy of the attribute's datatype.
func (l *Lib) AgetType(id ID) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.attribute(id)
	if err != nil {
		return Invalid, err
	}
	return l.newDatatype(a.msg.Datatype, a.f), nil
}

// Aread reads every element of an attribute into buf, converting to
// memType. buf follows the rules of Dread.
func (l *Lib) Aread(id, memType ID, buf any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.attribute(id)
	if err != nil {
		return err
	}
	mt, err := l.datatype(memType)
	if err != nil {
		return err
	}
	n := a.msg.Dataspace.NumElements()
	if n == 0 {
		return nil
	}
	if err := a.f.convert(a.msg.Datatype, mt.dt, a.msg.Data, int(n), buf); err != nil {
		return fmt.Errorf("reading attribute %q: %w", a.msg.Name, err)
	}
	return nil
}
