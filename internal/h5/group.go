package h5

import "fmt"

type group struct {
	f    *file
	addr uint64
	path string
}

func (g *group) kind() Kind   { return KindGroup }
func (g *group) owner() *file { return g.f }

// location returns the file and group address a file or group ID stands
// for. Callers hold l.mu.
func (l *Lib) location(loc ID) (*file, uint64, error) {
	obj, ok := l.objs[loc]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrBadID, loc)
	}
	switch o := obj.(type) {
	case *file:
		return o, o.rootAddr(), nil
	case *group:
		return o.f, o.addr, nil
	}
	return nil, 0, fmt.Errorf("%w: %d is a %s, not a location", ErrWrongKind, loc, obj.kind())
}

// Gopen opens the group at path relative to the file or group loc.
func (l *Lib) Gopen(loc ID, path string) (ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, start, err := l.location(loc)
	if err != nil {
		return Invalid, err
	}
	addr, err := f.resolve(start, path)
	if err != nil {
		return Invalid, fmt.Errorf("opening group %q: %w", path, err)
	}
	t, err := f.objType(addr)
	if err != nil {
		return Invalid, fmt.Errorf("opening group %q: %w", path, err)
	}
	if t != ObjGroup {
		return Invalid, fmt.Errorf("opening group %q: %w: is a %s", path, ErrWrongKind, t)
	}
	f.ref()
	return l.insert(&group{f: f, addr: addr, path: path}), nil
}

// Gclose closes a group ID.
func (l *Lib) Gclose(id ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(id, KindGroup)
}

func (l *Lib) groupMembers(loc ID) (*file, uint64, []member, error) {
	f, addr, err := l.location(loc)
	if err != nil {
		return nil, 0, nil, err
	}
	ms, err := f.members(addr)
	if err != nil {
		return nil, 0, nil, err
	}
	return f, addr, ms, nil
}

// GgetNumObjs returns the number of links in a file's root group or a
// group.
func (l *Lib) GgetNumObjs(loc ID) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _, ms, err := l.groupMembers(loc)
	return len(ms), err
}

// GgetObjnameByIdx returns the name of link idx in name order.
func (l *Lib) GgetObjnameByIdx(loc ID, idx int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _, ms, err := l.groupMembers(loc)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(ms) {
		return "", fmt.Errorf("%w: index %d of %d", ErrNotFound, idx, len(ms))
	}
	return ms[idx].name, nil
}

// GgetObjtypeByIdx returns the kind of the object link idx points to.
// Links that cannot be followed report ObjUnknown.
func (l *Lib) GgetObjtypeByIdx(loc ID, idx int) (ObjType, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, addr, ms, err := l.groupMembers(loc)
	if err != nil {
		return ObjUnknown, err
	}
	if idx < 0 || idx >= len(ms) {
		return ObjUnknown, fmt.Errorf("%w: index %d of %d", ErrNotFound, idx, len(ms))
	}
	target, err := f.resolve(addr, ms[idx].name)
	if err != nil {
		return ObjUnknown, nil
	}
	return f.objType(target)
}
