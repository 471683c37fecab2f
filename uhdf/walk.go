package uhdf

import (
	"errors"
	"sort"
)

// SkipDir can be returned by a WalkFunc called for a group to skip the
// group's children.
var SkipDir = errors.New("skip this group")

// WalkFunc is called for every object Walk visits. obj is the root passed
// to Walk, a *Group or a *Dataset; it is closed once the callback and, for
// groups, the walk of its children have returned, so it must not be kept.
// When an object cannot be opened obj is nil and err says why; returning
// nil continues with its siblings. Any other error stops the walk and is
// returned by Walk.
type WalkFunc func(path string, obj any, err error) error

// Walk visits root and everything below it depth first, children in name
// order.
func Walk(root Container, fn WalkFunc) error {
	p := "/"
	if g, ok := root.(*Group); ok {
		p = g.Path()
	}
	if err := fn(p, root, nil); err != nil {
		if err == SkipDir {
			return nil
		}
		return err
	}
	return walkChildren(root, p, fn)
}

type child struct {
	name  string
	group bool
}

func walkChildren(c Container, p string, fn WalkFunc) error {
	groups, err := c.GroupNames()
	if err != nil {
		return fn(p, nil, err)
	}
	datasets, err := c.DatasetNames()
	if err != nil {
		return fn(p, nil, err)
	}
	children := make([]child, 0, len(groups)+len(datasets))
	for _, name := range groups {
		children = append(children, child{name, true})
	}
	for _, name := range datasets {
		children = append(children, child{name, false})
	}
	sort.Slice(children, func(i, j int) bool { return children[i].name < children[j].name })

	for _, ch := range children {
		childPath := joinPath(p, ch.name)
		var err error
		if ch.group {
			err = walkGroup(c, childPath, ch.name, fn)
		} else {
			err = walkDataset(c, childPath, ch.name, fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func walkGroup(parent Container, p, name string, fn WalkFunc) error {
	g, err := parent.OpenGroup(name)
	if err != nil {
		return fn(p, nil, err)
	}
	defer g.Close()
	if err := fn(p, g, nil); err != nil {
		if err == SkipDir {
			return nil
		}
		return err
	}
	return walkChildren(g, p, fn)
}

func walkDataset(parent Container, p, name string, fn WalkFunc) error {
	d, err := parent.OpenDataset(name)
	if err != nil {
		return fn(p, nil, err)
	}
	defer d.Close()
	if err := fn(p, d, nil); err != nil && err != SkipDir {
		return err
	}
	return nil
}
