package uhdf

import (
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-uhdf/internal/h5"
	"github.com/robert-malhotra/go-uhdf/internal/sd"
)

// sdAPI is the SD reader. *sd.Lib implements it.
type sdAPI interface {
	Start(path string, access sd.Access) (sd.ID, error)
	End(id sd.ID) error
	FileInfo(id sd.ID) (datasets, attrs int, err error)
	Select(id sd.ID, index int) (sd.ID, error)
	NameToIndex(id sd.ID, name string) (int, error)
	GetInfo(sdsID sd.ID) (sd.Info, error)
	EndAccess(sdsID sd.ID) error
	FindAttr(id sd.ID, name string) (int, error)
	AttrInfo(id sd.ID, index int) (sd.AttrInfo, error)
	ReadAttr(id sd.ID, index int, buf any) error
	ReadData(sdsID sd.ID, start, stride, edge []int32, buf any) error
}

// h5API is the HDF5 reader. *h5.Lib implements it.
type h5API interface {
	Fopen(path string) (h5.ID, error)
	Fclose(id h5.ID) error

	Gopen(loc h5.ID, path string) (h5.ID, error)
	Gclose(id h5.ID) error
	GgetNumObjs(loc h5.ID) (int, error)
	GgetObjnameByIdx(loc h5.ID, idx int) (string, error)
	GgetObjtypeByIdx(loc h5.ID, idx int) (h5.ObjType, error)

	Dopen(loc h5.ID, path string) (h5.ID, error)
	Dclose(id h5.ID) error
	DgetSpace(id h5.ID) (h5.ID, error)
	DgetType(id h5.ID) (h5.ID, error)
	DgetLayout(id h5.ID) (h5.Layout, error)
	Dread(id, memType, memSpace, fileSpace h5.ID, buf any) error

	Aopen(obj h5.ID, name string) (h5.ID, error)
	Aclose(id h5.ID) error
	AgetNumAttrs(obj h5.ID) (int, error)
	AgetNameByIdx(obj h5.ID, idx int) (string, error)
	AgetSpace(id h5.ID) (h5.ID, error)
	AgetType(id h5.ID) (h5.ID, error)
	Aread(id, memType h5.ID, buf any) error

	ScreateSimple(dims []uint64) (h5.ID, error)
	Scopy(id h5.ID) (h5.ID, error)
	Sclose(id h5.ID) error
	SgetSimpleExtentNdims(id h5.ID) (int, error)
	SgetSimpleExtentDims(id h5.ID) ([]uint64, error)
	SgetSimpleExtentNpoints(id h5.ID) (uint64, error)
	SgetSelectNpoints(id h5.ID) (uint64, error)
	SselectHyperslab(id h5.ID, start, stride, count []uint64) error

	Tcopy(id h5.ID) (h5.ID, error)
	Tclose(id h5.ID) error
	TgetClass(id h5.ID) (h5.Class, error)
	TgetSize(id h5.ID) (int, error)
	TgetSign(id h5.ID) (bool, error)
	TisVariableStr(id h5.ID) (bool, error)
	TsetSize(id h5.ID, size int) error
	TsetStrpad(id h5.ID, pad h5.StrPad) error
	TsetCset(id h5.ID, cset h5.Cset) error
}

// backend is the reader instance behind one open file, shared by every
// accessor derived from it.
type backend struct {
	format Format
	sd     sdAPI
	h5     h5API
	log    logrus.FieldLogger
}
