package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robert-malhotra/go-uhdf/uhdf"
)

// summary holds the statistics of a dataset read as float64.
type summary struct {
	Dataset string  `json:"dataset" yaml:"dataset" cbor:"dataset"`
	Count   int     `json:"count" yaml:"count" cbor:"count"`
	Mean    float64 `json:"mean" yaml:"mean" cbor:"mean"`
	StdDev  float64 `json:"stddev" yaml:"stddev" cbor:"stddev"`
	Min     float64 `json:"min" yaml:"min" cbor:"min"`
	Max     float64 `json:"max" yaml:"max" cbor:"max"`
}

func summarize(name string, vals []float64) (summary, error) {
	if len(vals) == 0 {
		return summary{}, fmt.Errorf("dataset %s has no elements", name)
	}
	s := summary{Dataset: name, Count: len(vals), Min: floats.Min(vals), Max: floats.Max(vals)}
	if len(vals) == 1 {
		s.Mean = vals[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	return s, nil
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE DATASET",
		Short: "Print count, mean, standard deviation, min and max of a dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataset(args[0], args[1], func(d *uhdf.Dataset) error {
				vals, err := uhdf.ReadAll[float64](d)
				if err != nil {
					return err
				}
				s, err := summarize(d.Path(), vals)
				if err != nil {
					return err
				}
				return a.render(s, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s\n  count  %s\n  mean   %g\n  stddev %g\n  min    %g\n  max    %g\n",
						s.Dataset, humanize.Comma(int64(s.Count)), s.Mean, s.StdDev, s.Min, s.Max)
					return err
				})
			})
		},
	}
}

// digest hashes the values of vals as little-endian float64 bits, so the
// same numbers stored with different types or formats hash the same.
func digest(vals []float64) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

type digestResult struct {
	Dataset string `json:"dataset" yaml:"dataset" cbor:"dataset"`
	XXH64   string `json:"xxh64" yaml:"xxh64" cbor:"xxh64"`
}

func newDigestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "digest FILE DATASET...",
		Short: "Print an xxhash64 of each dataset's values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var out []digestResult
			for _, name := range args[1:] {
				d, err := f.OpenDataset(name)
				if err != nil {
					return err
				}
				vals, err := uhdf.ReadAll[float64](d)
				d.Close()
				if err != nil {
					return err
				}
				out = append(out, digestResult{Dataset: d.Path(), XXH64: fmt.Sprintf("%016x", digest(vals))})
			}
			return a.render(out, func(w io.Writer) error {
				for _, r := range out {
					if _, err := fmt.Fprintf(w, "%s  %s\n", r.XXH64, r.Dataset); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

type dumpResult struct {
	Dataset string    `json:"dataset" yaml:"dataset" cbor:"dataset"`
	Start   []int32   `json:"start" yaml:"start" cbor:"start"`
	Stride  []int32   `json:"stride" yaml:"stride" cbor:"stride"`
	Count   []int32   `json:"count" yaml:"count" cbor:"count"`
	Values  []float64 `json:"values" yaml:"values" cbor:"values"`
}

func newDumpCmd(a *app) *cobra.Command {
	var start, stride, count []int32
	cmd := &cobra.Command{
		Use:   "dump FILE DATASET",
		Short: "Print a strided selection of a dataset row by row",
		Long: `dump reads a selection of a dataset as float64. --start defaults to
the origin, --stride to 1 and --count to the rest of each dimension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataset(args[0], args[1], func(d *uhdf.Dataset) error {
				sel, err := selection(d.Dims(), start, stride, count)
				if err != nil {
					return err
				}
				vals, err := uhdf.Read[float64](d, sel.Start, sel.Stride, sel.Count)
				if err != nil {
					return err
				}
				sel.Dataset, sel.Values = d.Path(), vals
				return a.render(sel, func(w io.Writer) error {
					return writeRows(w, vals, sel.Count)
				})
			})
		},
	}
	cmd.Flags().Int32SliceVar(&start, "start", nil, "first index per dimension")
	cmd.Flags().Int32SliceVar(&stride, "stride", nil, "step per dimension")
	cmd.Flags().Int32SliceVar(&count, "count", nil, "elements per dimension")
	return cmd
}

// selection fills in the defaults of a dump selection over dims.
func selection(dims []uint64, start, stride, count []int32) (*dumpResult, error) {
	rank := len(dims)
	for name, v := range map[string][]int32{"start": start, "stride": stride, "count": count} {
		if v != nil && len(v) != rank {
			return nil, fmt.Errorf("--%s has %d values, dataset has rank %d", name, len(v), rank)
		}
	}
	r := &dumpResult{Start: start, Stride: stride, Count: count}
	if r.Start == nil {
		r.Start = make([]int32, rank)
	}
	if r.Stride == nil {
		r.Stride = make([]int32, rank)
		for i := range r.Stride {
			r.Stride[i] = 1
		}
	}
	if r.Count == nil {
		r.Count = make([]int32, rank)
		for i, n := range dims {
			if r.Stride[i] <= 0 || int64(r.Start[i]) >= int64(n) {
				continue
			}
			r.Count[i] = int32((int64(n) - int64(r.Start[i]) + int64(r.Stride[i]) - 1) / int64(r.Stride[i]))
		}
	}
	return r, nil
}

// writeRows prints vals with one line per index of all but the last
// dimension.
func writeRows(w io.Writer, vals []float64, count []int32) error {
	row := 1
	if len(count) > 0 {
		row = int(count[len(count)-1])
	}
	if row == 0 {
		return nil
	}
	for i := 0; i < len(vals); i += row {
		parts := make([]string, 0, row)
		for _, v := range vals[i:min(i+row, len(vals))] {
			parts = append(parts, cast.ToString(v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

type attrResult struct {
	Path  string `json:"path" yaml:"path" cbor:"path"`
	Type  string `json:"type" yaml:"type" cbor:"type"`
	Value string `json:"value" yaml:"value" cbor:"value"`
}

func newAttrCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attr FILE OBJECT@NAME",
		Short: "Print one attribute, e.g. /@title or /grid@units",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objPath, name, err := uhdf.ParseAttrPath(args[1])
			if err != nil {
				return err
			}
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			holder, closeFn, err := openHolder(f, objPath)
			if err != nil {
				return err
			}
			defer closeFn()
			at, err := holder.OpenAttribute(name)
			if err != nil {
				return err
			}
			defer at.Close()
			v, err := attrValue(at)
			if err != nil {
				return err
			}
			r := attrResult{Path: at.Path(), Type: at.Type().String(), Value: v}
			return a.render(r, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, r.Value)
				return err
			})
		},
	}
}

// openHolder opens the object at p: the file itself for "/", a dataset,
// or, failing that, a group.
func openHolder(f *uhdf.File, p string) (uhdf.AttributeHolder, func() error, error) {
	if p == "/" {
		return f, func() error { return nil }, nil
	}
	d, err := f.OpenDataset(p)
	if err == nil {
		return d, d.Close, nil
	}
	if !f.HasGroups() {
		return nil, nil, err
	}
	g, gerr := f.OpenGroup(p)
	if gerr != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}
