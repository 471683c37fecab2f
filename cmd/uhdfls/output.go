package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cast"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-uhdf/uhdf"
)

var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: building encoder mode: %v", err))
	}
}

// encoders write v in a structured output format.
var encoders = map[string]func(w io.Writer, v any) error{
	"json": func(w io.Writer, v any) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	},
	"yaml": func(w io.Writer, v any) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	},
	"cbor": func(w io.Writer, v any) error {
		return cborMode.NewEncoder(w).Encode(v)
	},
}

// render writes v in the configured format, calling text for plain output.
func (a *app) render(v any, text func(w io.Writer) error) error {
	if enc, ok := encoders[a.cfg.Output]; ok {
		return enc(a.stdout, v)
	}
	return text(a.stdout)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// attrValue renders an attribute: strings as text, numbers space
// separated.
func attrValue(a *uhdf.Attribute) (string, error) {
	switch t := a.Type(); {
	case t == uhdf.String:
		return a.ReadAsString()
	case t == uhdf.Reference:
		return "<reference>", nil
	case t == uhdf.Float32 || t == uhdf.Float64:
		return joinValues[float64](uhdf.ReadAttribute[float64](a))
	case t == uhdf.UInt8 || t == uhdf.UInt16 || t == uhdf.UInt32 || t == uhdf.UInt64:
		return joinValues[uint64](uhdf.ReadAttribute[uint64](a))
	case t.IsNumeric():
		return joinValues[int64](uhdf.ReadAttribute[int64](a))
	}
	if err := a.TypeErr(); err != nil {
		return "", fmt.Errorf("attribute %s: %w", a.Path(), err)
	}
	return "", fmt.Errorf("attribute %s: %w", a.Path(), uhdf.ErrUnsupportedType)
}

func joinValues[T uhdf.Number](vals []T, err error) (string, error) {
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = cast.ToString(v)
	}
	return strings.Join(parts, " "), nil
}

func formatDims(dims []uint64) string {
	if len(dims) == 0 {
		return "scalar"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = cast.ToString(d)
	}
	return strings.Join(parts, "x")
}
