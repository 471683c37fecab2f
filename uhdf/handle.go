package uhdf

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// Format identifies the container format of a file.
type Format uint8

const (
	FormatSD Format = iota + 1
	FormatH5
)

func (f Format) String() string {
	switch f {
	case FormatSD:
		return "SD"
	case FormatH5:
		return "HDF5"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

type kind uint8

const (
	kindFile kind = iota + 1
	kindGroup
	kindDataset
	kindAttribute
	kindDataspace
	kindDatatype
)

var kindNames = [...]string{
	kindFile:      "file",
	kindGroup:     "group",
	kindDataset:   "dataset",
	kindAttribute: "attribute",
	kindDataspace: "dataspace",
	kindDatatype:  "datatype",
}

func (k kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

const invalidRaw int64 = -1

// handle is one reader identifier tagged with what it refers to.
type handle struct {
	b    *backend
	kind kind
	raw  int64
}

func newHandle(b *backend, k kind, raw int64) handle {
	return handle{b: b, kind: k, raw: raw}
}

func (h handle) valid() bool { return h.b != nil && h.raw >= 0 }

func (h handle) sd() sd.ID { return sd.ID(h.raw) }
func (h handle) h5() h5.ID { return h5.ID(h.raw) }

// release closes the identifier. Releasing an invalid or released handle
// does nothing.
func (h *handle) release() error {
	if !h.valid() {
		return nil
	}
	raw := h.raw
	h.raw = invalidRaw

	var err error
	switch h.b.format {
	case FormatSD:
		id := sd.ID(raw)
		switch h.kind {
		case kindFile:
			err = h.b.sd.End(id)
		case kindDataset:
			err = h.b.sd.EndAccess(id)
		}
	case FormatH5:
		id := h5.ID(raw)
		switch h.kind {
		case kindFile:
			err = h.b.h5.Fclose(id)
		case kindGroup:
			err = h.b.h5.Gclose(id)
		case kindDataset:
			err = h.b.h5.Dclose(id)
		case kindAttribute:
			err = h.b.h5.Aclose(id)
		case kindDataspace:
			err = h.b.h5.Sclose(id)
		case kindDatatype:
			err = h.b.h5.Tclose(id)
		}
	}
	h.b.log.WithFields(logrus.Fields{
		"format": h.b.format,
		"object": h.kind,
		"id":     raw,
	}).Debug("released handle")
	if err != nil {
		return fmt.Errorf("releasing %s handle %d: %w", h.kind, raw, err)
	}
	return nil
}

// track releases h when obj becomes unreachable. Stop the returned
// cleanup once h has been released explicitly.
func track[T any](obj *T, h handle) runtime.Cleanup {
	return runtime.AddCleanup(obj, func(h handle) { h.release() }, h)
}
