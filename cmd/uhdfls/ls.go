package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-uhdf/uhdf"
)

// entry is one listed object.
type entry struct {
	Path  string   `json:"path" yaml:"path" cbor:"path"`
	Kind  string   `json:"kind" yaml:"kind" cbor:"kind"`
	Type  string   `json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Dims  []uint64 `json:"dims,omitempty" yaml:"dims,omitempty" cbor:"dims,omitempty"`
	Bytes uint64   `json:"bytes,omitempty" yaml:"bytes,omitempty" cbor:"bytes,omitempty"`
	Chunk bool     `json:"chunked,omitempty" yaml:"chunked,omitempty" cbor:"chunked,omitempty"`
	Attrs []attr   `json:"attributes,omitempty" yaml:"attributes,omitempty" cbor:"attributes,omitempty"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
}

type attr struct {
	Name  string `json:"name" yaml:"name" cbor:"name"`
	Type  string `json:"type" yaml:"type" cbor:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
}

// listing is the ls result.
type listing struct {
	File    string  `json:"file" yaml:"file" cbor:"file"`
	Format  string  `json:"format" yaml:"format" cbor:"format"`
	Entries []entry `json:"entries" yaml:"entries" cbor:"entries"`
}

func newLsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls FILE",
		Short: "List groups, datasets and attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.list(args[0])
			if err != nil {
				return err
			}
			return a.render(l, func(w io.Writer) error {
				return writeTree(w, l, isTerminal(w))
			})
		},
	}
	cmd.Flags().BoolVar(&a.cfg.Attributes, "attrs", a.cfg.Attributes, "list attributes")
	return cmd
}

func (a *app) list(p string) (*listing, error) {
	f, err := a.open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l := &listing{File: p, Format: f.Format().String()}
	err = uhdf.Walk(f, func(p string, obj any, err error) error {
		if err != nil {
			a.log.WithError(err).WithField("object", p).Warn("skipping object")
			l.Entries = append(l.Entries, entry{Path: p, Kind: "error", Error: err.Error()})
			return nil
		}
		e := entry{Path: p}
		switch o := obj.(type) {
		case *uhdf.File, *uhdf.Group:
			e.Kind = "group"
		case *uhdf.Dataset:
			e.Kind = "dataset"
			e.Type = o.Type().String()
			e.Dims = o.Dims()
			e.Bytes = o.NumElements() * uint64(o.Type().Size())
			e.Chunk = o.Chunked()
		}
		if a.cfg.Attributes {
			e.Attrs = a.attributes(obj.(uhdf.AttributeHolder))
		}
		l.Entries = append(l.Entries, e)
		return nil
	})
	return l, err
}

func (a *app) attributes(h uhdf.AttributeHolder) []attr {
	names, err := h.AttributeNames()
	if err != nil {
		a.log.WithError(err).Warn("listing attributes")
		return []attr{{Error: err.Error()}}
	}
	out := make([]attr, 0, len(names))
	for _, name := range names {
		out = append(out, a.attribute(h, name))
	}
	return out
}

func (a *app) attribute(h uhdf.AttributeHolder, name string) attr {
	at, err := h.OpenAttribute(name)
	if err != nil {
		a.log.WithError(err).WithField("attribute", name).Warn("skipping attribute")
		return attr{Name: name, Error: err.Error()}
	}
	defer at.Close()
	out := attr{Name: name, Type: at.Type().String()}
	if out.Value, err = attrValue(at); err != nil {
		a.log.WithFields(logrus.Fields{"attribute": at.Path(), "type": at.Type()}).WithError(err).Warn("reading attribute")
		out.Error = err.Error()
	}
	return out
}

// writeTree prints the listing indented by depth, with box drawing glyphs
// on a terminal.
func writeTree(w io.Writer, l *listing, glyphs bool) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", l.File, l.Format); err != nil {
		return err
	}
	branch, attrMark := "  ", "  @"
	if glyphs {
		branch, attrMark = "├─ ", "  · @"
	}
	for _, e := range l.Entries {
		depth := strings.Count(strings.Trim(e.Path, "/"), "/")
		if e.Path == "/" {
			depth = -1
		}
		indent := strings.Repeat("  ", depth+1)
		var line string
		switch e.Kind {
		case "dataset":
			line = fmt.Sprintf("%s%s%s  %s %s  %s", indent, branch, path.Base(e.Path), e.Type, formatDims(e.Dims), humanize.Bytes(e.Bytes))
			if e.Chunk {
				line += "  (chunked)"
			}
		case "error":
			line = fmt.Sprintf("%s%s%s  error: %s", indent, branch, path.Base(e.Path), e.Error)
		default:
			if e.Path == "/" {
				line = "/"
			} else {
				line = fmt.Sprintf("%s%s%s/", indent, branch, path.Base(e.Path))
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, at := range e.Attrs {
			v := at.Value
			if at.Error != "" {
				v = "error: " + at.Error
			}
			if _, err := fmt.Fprintf(w, "%s%s%s %s = %s\n", indent, attrMark, at.Name, at.Type, v); err != nil {
				return err
			}
		}
	}
	return nil
}
