package h5test

import (
	"math"
	"testing"
)

// TestFile writes:
//
//	/                 attrs title (string 11), scale (float32), empty (int32[0]),
//	                  vl (variable-length string), cmp (compound)
//	/data             int32 4x3, contiguous, values 0..11, attr units
//	/be               big-endian uint16[3], compact
//	/str              scalar string(5), compact
//	/chunked          float64 2x4, chunked
//	/alias            soft link to /data
//	/g1/g2/ds         float64[2], compact
//	/g1/note          named datatype
func TestFile(t testing.TB) string {
	b := New()

	grid := make([]int32, 12)
	for i := range grid {
		grid[i] = int32(i)
	}
	gridAddr := b.Raw(Int32s(grid...))
	data := b.Object(
		Space(4, 3), Type(Int(4, true, false)), Contiguous(gridAddr, 48),
		Attr("units", String(6), Space(), []byte("meters")),
	)
	be := b.Object(Space(3), Type(Int(2, false, true)), Compact([]byte{0, 1, 0, 2, 1, 0}))
	str := b.Object(Space(), Type(String(5)), Compact([]byte("hello")))
	chunked := b.Object(Space(2, 4), Type(Float(8)), Chunked())

	ds := b.Object(Space(2), Type(Float(8)), Compact(Float64s(1.5, -2.5)))
	g2 := b.Object(Link("ds", ds))
	note := b.Object(Type(Int(4, true, false)))
	g1 := b.Object(Link("g2", g2), Link("note", note))

	gh := b.GlobalHeap([]byte("variable"))

	root := b.Object(
		Link("data", data), Link("be", be), Link("str", str), Link("chunked", chunked),
		Link("g1", g1), SoftLink("alias", "/data"),
		Attr("title", String(11), Space(), []byte("hello world")),
		Attr("scale", Float(4), Space(), le32(math.Float32bits(0.5))),
		Attr("empty", Int(4, true, false), Space(0), nil),
		Attr("vl", VarString(), Space(), VarLenDesc(8, gh, 1)),
		Attr("cmp", Compound(8), Space(), make([]byte, 8)),
	)
	return b.Finish(t, root)
}

// LegacyFile writes a file with a version 0 superblock and symbol table
// groups:
//
//	/data        int32[4], contiguous, values 10..13, attr units
//	/grp/ds      float64[2], compact
//	/alias       soft link to /data
//
// The root's symbol table is cached in the superblock. With cacheOnly the
// root header carries no symbol table message of its own.
func LegacyFile(t testing.TB, cacheOnly bool) string {
	b := NewLegacy(0)

	at := b.Raw(Int32s(10, 11, 12, 13))
	data := b.Object(
		Space(4), Type(Int(4, true, false)), Contiguous(at, 16),
		Attr("units", String(6), Space(), []byte("meters")),
	)
	ds := b.Object(Space(2), Type(Float(8)), Compact(Float64s(0.25, 4)))
	grp := b.Object(b.SymbolGroup(Entry{Name: "ds", Addr: ds}).Msg())

	st := b.SymbolGroup(
		Entry{Name: "data", Addr: data},
		Entry{Name: "grp", Addr: grp},
		Entry{Name: "alias", Target: "/data"},
	)
	b.CacheRoot(st)
	var root uint64
	if cacheOnly {
		root = b.Object()
	} else {
		root = b.Object(st.Msg())
	}
	return b.Finish(t, root)
}
