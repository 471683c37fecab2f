package h5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-uhdf/internal/h5/h5test"
)

func openTestFile(t *testing.T) (*Lib, ID) {
	t.Helper()
	lib := New()
	fid, err := lib.Fopen(h5test.TestFile(t))
	require.NoError(t, err)
	t.Cleanup(func() { lib.Fclose(fid) })
	return lib, fid
}

func TestIsHDF5(t *testing.T) {
	ok, err := IsHDF5(h5test.TestFile(t))
	require.NoError(t, err)
	assert.True(t, ok)

	other := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(other, []byte("not hdf5 at all"), 0o644))
	ok, err = IsHDF5(other)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = New().Fopen(other)
	assert.ErrorIs(t, err, ErrNotHDF5)
}

func TestGroupMembers(t *testing.T) {
	lib, fid := openTestFile(t)

	n, err := lib.GgetNumObjs(fid)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	want := []struct {
		name string
		typ  ObjType
	}{
		{"alias", ObjDataset},
		{"be", ObjDataset},
		{"chunked", ObjDataset},
		{"data", ObjDataset},
		{"g1", ObjGroup},
		{"str", ObjDataset},
	}
	for i, w := range want {
		name, err := lib.GgetObjnameByIdx(fid, i)
		require.NoError(t, err)
		assert.Equal(t, w.name, name)
		typ, err := lib.GgetObjtypeByIdx(fid, i)
		require.NoError(t, err)
		assert.Equal(t, w.typ, typ, w.name)
	}

	_, err = lib.GgetObjnameByIdx(fid, 6)
	assert.ErrorIs(t, err, ErrNotFound)

	g1, err := lib.Gopen(fid, "g1")
	require.NoError(t, err)
	defer lib.Gclose(g1)
	typ, err := lib.GgetObjtypeByIdx(g1, 1)
	require.NoError(t, err)
	assert.Equal(t, ObjNamedType, typ)
}

func TestGopen(t *testing.T) {
	lib, fid := openTestFile(t)

	g, err := lib.Gopen(fid, "/g1/g2")
	require.NoError(t, err)
	name, err := lib.GgetObjnameByIdx(g, 0)
	require.NoError(t, err)
	assert.Equal(t, "ds", name)
	require.NoError(t, lib.Gclose(g))

	_, err = lib.Gopen(fid, "g1/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = lib.Gopen(fid, "data")
	assert.ErrorIs(t, err, ErrWrongKind)

	assert.ErrorIs(t, lib.Gclose(g), ErrBadID)
}

func TestDreadWholeAndHyperslab(t *testing.T) {
	lib, fid := openTestFile(t)

	did, err := lib.Dopen(fid, "data")
	require.NoError(t, err)
	defer lib.Dclose(did)

	all := make([]int32, 12)
	require.NoError(t, lib.Dread(did, NativeInt32, All, All, all))
	assert.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, all)

	fs, err := lib.DgetSpace(did)
	require.NoError(t, err)
	defer lib.Sclose(fs)
	dims, err := lib.SgetSimpleExtentDims(fs)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 3}, dims)

	require.NoError(t, lib.SselectHyperslab(fs, []uint64{0, 0}, []uint64{2, 1}, []uint64{2, 3}))
	ms, err := lib.ScreateSimple([]uint64{6})
	require.NoError(t, err)
	defer lib.Sclose(ms)

	rows := make([]float64, 6)
	require.NoError(t, lib.Dread(did, NativeDouble, ms, fs, rows))
	assert.Equal(t, []float64{0, 1, 2, 6, 7, 8}, rows)

	assert.ErrorIs(t, lib.SselectHyperslab(fs, []uint64{3, 0}, []uint64{2, 1}, []uint64{2, 3}), ErrSelection)

	short, err := lib.ScreateSimple([]uint64{5})
	require.NoError(t, err)
	defer lib.Sclose(short)
	assert.ErrorIs(t, lib.Dread(did, NativeDouble, short, fs, rows), ErrSelection)
}

func TestDreadConversions(t *testing.T) {
	lib, fid := openTestFile(t)

	be, err := lib.Dopen(fid, "be")
	require.NoError(t, err)
	defer lib.Dclose(be)
	u16 := make([]uint16, 3)
	require.NoError(t, lib.Dread(be, NativeUint16, All, All, u16))
	assert.Equal(t, []uint16{1, 2, 256}, u16)

	ds, err := lib.Dopen(fid, "g1/g2/ds")
	require.NoError(t, err)
	defer lib.Dclose(ds)
	i32 := make([]int32, 2)
	require.NoError(t, lib.Dread(ds, NativeInt32, All, All, i32))
	assert.Equal(t, []int32{1, -2}, i32)

	alias, err := lib.Dopen(fid, "alias")
	require.NoError(t, err)
	defer lib.Dclose(alias)
	first := make([]int64, 12)
	require.NoError(t, lib.Dread(alias, NativeInt64, All, All, first))
	assert.Equal(t, int64(11), first[11])
}

func TestDreadScalarString(t *testing.T) {
	lib, fid := openTestFile(t)
	did, err := lib.Dopen(fid, "str")
	require.NoError(t, err)
	defer lib.Dclose(did)

	sid, err := lib.DgetSpace(did)
	require.NoError(t, err)
	defer lib.Sclose(sid)
	rank, err := lib.SgetSimpleExtentNdims(sid)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)

	tid, err := lib.DgetType(did)
	require.NoError(t, err)
	defer lib.Tclose(tid)
	class, err := lib.TgetClass(tid)
	require.NoError(t, err)
	assert.Equal(t, ClassString, class)

	buf := make([]byte, 5)
	require.NoError(t, lib.Dread(did, tid, All, All, buf))
	assert.Equal(t, "hello", string(buf))
}

func TestChunkedIsInspectableButUnreadable(t *testing.T) {
	lib, fid := openTestFile(t)
	did, err := lib.Dopen(fid, "chunked")
	require.NoError(t, err)
	defer lib.Dclose(did)

	sid, err := lib.DgetSpace(did)
	require.NoError(t, err)
	defer lib.Sclose(sid)
	dims, err := lib.SgetSimpleExtentDims(sid)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4}, dims)

	err = lib.Dread(did, NativeDouble, All, All, make([]float64, 8))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDgetLayout(t *testing.T) {
	lib, fid := openTestFile(t)
	tests := []struct {
		path string
		want Layout
	}{
		{"data", LayoutContiguous},
		{"be", LayoutCompact},
		{"chunked", LayoutChunked},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			did, err := lib.Dopen(fid, tt.path)
			require.NoError(t, err)
			defer lib.Dclose(did)
			got, err := lib.DgetLayout(did)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := lib.DgetLayout(fid)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestScopyKeepsSelection(t *testing.T) {
	lib, fid := openTestFile(t)
	did, err := lib.Dopen(fid, "data")
	require.NoError(t, err)
	defer lib.Dclose(did)

	fs, err := lib.DgetSpace(did)
	require.NoError(t, err)
	defer lib.Sclose(fs)
	n, err := lib.SgetSelectNpoints(fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), n)

	require.NoError(t, lib.SselectHyperslab(fs, []uint64{1, 0}, []uint64{1, 2}, []uint64{2, 2}))
	cp, err := lib.Scopy(fs)
	require.NoError(t, err)
	defer lib.Sclose(cp)
	n, err = lib.SgetSelectNpoints(cp)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	// Selecting on the copy leaves the original alone.
	require.NoError(t, lib.SselectHyperslab(cp, []uint64{0, 0}, []uint64{1, 1}, []uint64{1, 1}))
	n, err = lib.SgetSelectNpoints(fs)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	vals := make([]int32, 4)
	ms, err := lib.ScreateSimple([]uint64{4})
	require.NoError(t, err)
	defer lib.Sclose(ms)
	require.NoError(t, lib.Dread(did, NativeInt32, ms, fs, vals))
	assert.Equal(t, []int32{3, 5, 6, 8}, vals)
}

func TestAttributes(t *testing.T) {
	lib, fid := openTestFile(t)

	n, err := lib.AgetNumAttrs(fid)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	name, err := lib.AgetNameByIdx(fid, 1)
	require.NoError(t, err)
	assert.Equal(t, "scale", name)

	scale, err := lib.Aopen(fid, "scale")
	require.NoError(t, err)
	defer lib.Aclose(scale)
	f := make([]float64, 1)
	require.NoError(t, lib.Aread(scale, NativeDouble, f))
	assert.Equal(t, 0.5, f[0])

	_, err = lib.Aopen(fid, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	did, err := lib.Dopen(fid, "data")
	require.NoError(t, err)
	defer lib.Dclose(did)
	units, err := lib.Aopen(did, "units")
	require.NoError(t, err)
	require.NoError(t, lib.Aclose(units))
	assert.ErrorIs(t, lib.Aclose(units), ErrBadID)
}

func TestAttributeStrings(t *testing.T) {
	lib, fid := openTestFile(t)

	title, err := lib.Aopen(fid, "title")
	require.NoError(t, err)
	defer lib.Aclose(title)
	tid, err := lib.AgetType(title)
	require.NoError(t, err)
	defer lib.Tclose(tid)
	size, err := lib.TgetSize(tid)
	require.NoError(t, err)
	assert.Equal(t, 11, size)

	require.NoError(t, lib.TsetSize(tid, size+1))
	require.NoError(t, lib.TsetStrpad(tid, StrNullTerm))
	require.NoError(t, lib.TsetCset(tid, CsetASCII))
	buf := make([]byte, size+1)
	require.NoError(t, lib.Aread(title, tid, buf))
	assert.Equal(t, "hello world\x00", string(buf))

	vl, err := lib.Aopen(fid, "vl")
	require.NoError(t, err)
	defer lib.Aclose(vl)
	vt, err := lib.AgetType(vl)
	require.NoError(t, err)
	defer lib.Tclose(vt)
	isVar, err := lib.TisVariableStr(vt)
	require.NoError(t, err)
	assert.True(t, isVar)
	strs := make([]string, 1)
	require.NoError(t, lib.Aread(vl, vt, strs))
	assert.Equal(t, "variable", strs[0])

	require.NoError(t, lib.TsetSize(vt, 9))
	fixed := make([]byte, 9)
	require.NoError(t, lib.Aread(vl, vt, fixed))
	assert.Equal(t, "variable\x00", string(fixed))
}

func TestZeroElementAttribute(t *testing.T) {
	lib, fid := openTestFile(t)
	aid, err := lib.Aopen(fid, "empty")
	require.NoError(t, err)
	defer lib.Aclose(aid)

	sid, err := lib.AgetSpace(aid)
	require.NoError(t, err)
	defer lib.Sclose(sid)
	n, err := lib.SgetSimpleExtentNpoints(sid)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, lib.Aread(aid, NativeInt32, make([]int32, 1)))
}

func TestPredefinedTypes(t *testing.T) {
	lib := New()
	assert.ErrorIs(t, lib.Tclose(NativeInt32), ErrImmutable)
	assert.ErrorIs(t, lib.TsetSize(CS1, 4), ErrImmutable)

	tid, err := lib.Tcopy(CS1)
	require.NoError(t, err)
	require.NoError(t, lib.TsetSize(tid, 4))
	size, err := lib.TgetSize(tid)
	require.NoError(t, err)
	assert.Equal(t, 4, size)
	require.NoError(t, lib.Tclose(tid))

	signed, err := lib.TgetSign(NativeUint16)
	require.NoError(t, err)
	assert.False(t, signed)
	_, err = lib.TgetSign(NativeFloat)
	assert.ErrorIs(t, err, ErrUnsupported)

	class, err := lib.TgetClass(StdRefObj)
	require.NoError(t, err)
	assert.Equal(t, ClassReference, class)
	assert.Zero(t, lib.Open())
}

func TestHandleLifecycle(t *testing.T) {
	lib := New()
	fid, err := lib.Fopen(h5test.TestFile(t))
	require.NoError(t, err)

	did, err := lib.Dopen(fid, "data")
	require.NoError(t, err)

	// The dataset keeps the file readable after the file ID is closed.
	require.NoError(t, lib.Fclose(fid))
	buf := make([]int32, 12)
	require.NoError(t, lib.Dread(did, NativeInt32, All, All, buf))
	assert.Equal(t, int32(5), buf[5])
	require.NoError(t, lib.Dclose(did))
	assert.Zero(t, lib.Open())

	assert.ErrorIs(t, lib.Dclose(did), ErrBadID)
	_, err = lib.Dopen(fid, "data")
	assert.ErrorIs(t, err, ErrBadID)

	sid, err := lib.ScreateSimple([]uint64{2})
	require.NoError(t, err)
	assert.ErrorIs(t, lib.Dclose(sid), ErrWrongKind)
	require.NoError(t, lib.Sclose(sid))
}

func TestCompoundType(t *testing.T) {
	lib, fid := openTestFile(t)
	aid, err := lib.Aopen(fid, "cmp")
	require.NoError(t, err)
	defer lib.Aclose(aid)
	tid, err := lib.AgetType(aid)
	require.NoError(t, err)
	defer lib.Tclose(tid)
	class, err := lib.TgetClass(tid)
	require.NoError(t, err)
	assert.Equal(t, ClassCompound, class)
	assert.Error(t, lib.Aread(aid, NativeInt64, make([]int64, 1)))
}

func TestLegacyFile(t *testing.T) {
	tests := []struct {
		name      string
		cacheOnly bool
	}{
		{"symbol table message", false},
		{"root cached in superblock", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := New()
			fid, err := lib.Fopen(h5test.LegacyFile(t, tt.cacheOnly))
			require.NoError(t, err)
			defer lib.Fclose(fid)

			n, err := lib.GgetNumObjs(fid)
			require.NoError(t, err)
			require.Equal(t, 3, n)
			var names []string
			for i := range n {
				name, err := lib.GgetObjnameByIdx(fid, i)
				require.NoError(t, err)
				names = append(names, name)
			}
			assert.Equal(t, []string{"alias", "data", "grp"}, names)

			for _, path := range []string{"data", "alias"} {
				did, err := lib.Dopen(fid, path)
				require.NoError(t, err, path)
				vals := make([]int32, 4)
				require.NoError(t, lib.Dread(did, NativeInt32, All, All, vals))
				assert.Equal(t, []int32{10, 11, 12, 13}, vals, path)
				require.NoError(t, lib.Dclose(did))
			}

			ds, err := lib.Dopen(fid, "/grp/ds")
			require.NoError(t, err)
			defer lib.Dclose(ds)
			f := make([]float64, 2)
			require.NoError(t, lib.Dread(ds, NativeDouble, All, All, f))
			assert.Equal(t, []float64{0.25, 4}, f)

			data, err := lib.Dopen(fid, "data")
			require.NoError(t, err)
			defer lib.Dclose(data)
			units, err := lib.Aopen(data, "units")
			require.NoError(t, err)
			defer lib.Aclose(units)
			tid, err := lib.AgetType(units)
			require.NoError(t, err)
			defer lib.Tclose(tid)
			buf := make([]byte, 6)
			require.NoError(t, lib.Aread(units, tid, buf))
			assert.Equal(t, "meters", string(buf))
		})
	}
}
