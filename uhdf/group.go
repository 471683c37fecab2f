package uhdf

import (
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
)

// Group is an HDF5 group. SD files have no groups.
type Group struct {
	h       handle
	cleanup runtime.Cleanup
	path    string
	closed  bool
}

// openGroup opens the child group name of the HDF5 location behind
// parent.
func openGroup(parent handle, parentPath, name string) (*Group, error) {
	b := parent.b
	if b.format != FormatH5 {
		return nil, fmt.Errorf("%w: %s files have no groups", ErrUnsupportedOperation, b.format)
	}
	gid, err := b.h5.Gopen(parent.h5(), name)
	if err != nil {
		return nil, backendErr(ErrMetadata, err)
	}
	g := &Group{h: newHandle(b, kindGroup, int64(gid)), path: joinPath(parentPath, name)}
	g.cleanup = track(g, g.h)
	b.log.WithFields(logrus.Fields{"format": b.format, "object": g.path}).Debug("opened group")
	return g, nil
}

// resolve opens every component of p but the last as a group, starting at
// loc, and hands the last component with its parent scope to leaf. The
// intermediate groups are closed before returning.
func resolve[T any](loc handle, locPath, p string, leaf func(parent handle, parentPath, name string) (T, error)) (T, error) {
	var zero T
	parts, err := splitPath(p)
	if err != nil {
		return zero, err
	}
	cur, curPath := loc, locPath
	for _, name := range parts[:len(parts)-1] {
		g, err := openGroup(cur, curPath, name)
		if err != nil {
			return zero, err
		}
		defer g.Close()
		cur, curPath = g.h, g.path
	}
	return leaf(cur, curPath, parts[len(parts)-1])
}

// fullPath is the path p names relative to base, for messages.
func fullPath(base, p string) string {
	return joinPath(base, strings.Trim(p, "/"))
}

// h5Children lists the immediate children of an HDF5 location that are of
// type want, in name order.
func h5Children(loc handle, want h5.ObjType) ([]string, error) {
	api := loc.b.h5
	n, err := api.GgetNumObjs(loc.h5())
	if err != nil {
		return nil, backendErr(ErrMetadata, err)
	}
	var names []string
	for i := 0; i < n; i++ {
		typ, err := api.GgetObjtypeByIdx(loc.h5(), i)
		if err != nil {
			return nil, backendErr(ErrMetadata, err)
		}
		if typ != want {
			continue
		}
		name, err := api.GgetObjnameByIdx(loc.h5(), i)
		if err != nil {
			return nil, backendErr(ErrMetadata, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// Name returns the last component of the group path.
func (g *Group) Name() string { return path.Base(g.path) }

// Path returns the full path of the group.
func (g *Group) Path() string { return g.path }

// Close releases the group. Closing twice is a no-op.
func (g *Group) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.cleanup.Stop()
	return g.h.release()
}

func (g *Group) checkOpen() error {
	if g.closed {
		return fmt.Errorf("group %s: %w", g.path, ErrClosed)
	}
	return nil
}

// GroupNames lists the child groups in name order.
func (g *Group) GroupNames() ([]string, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	names, err := h5Children(g.h, h5.ObjGroup)
	if err != nil {
		return nil, fmt.Errorf("listing groups of %s: %w", g.path, err)
	}
	return names, nil
}

// DatasetNames lists the child datasets in name order.
func (g *Group) DatasetNames() ([]string, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	names, err := h5Children(g.h, h5.ObjDataset)
	if err != nil {
		return nil, fmt.Errorf("listing datasets of %s: %w", g.path, err)
	}
	return names, nil
}

// AttributeNames lists the attributes of the group.
func (g *Group) AttributeNames() ([]string, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	names, err := attributeNames(g.h)
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %s: %w", g.path, err)
	}
	return names, nil
}

// OpenGroup opens a group by a path relative to g.
func (g *Group) OpenGroup(p string) (*Group, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	child, err := resolve(g.h, g.path, p, openGroup)
	if err != nil {
		return nil, fmt.Errorf("opening group %s: %w", fullPath(g.path, p), err)
	}
	return child, nil
}

// OpenDataset opens a dataset by a path relative to g.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	d, err := resolve(g.h, g.path, p, openDataset)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", fullPath(g.path, p), err)
	}
	return d, nil
}

// OpenAttribute opens an attribute of the group.
func (g *Group) OpenAttribute(name string) (*Attribute, error) {
	if err := g.checkOpen(); err != nil {
		return nil, err
	}
	return openAttribute(g.h, g.path, name)
}
