// Package uhdf reads scientific array files through one API regardless of
// their container format.
//
// Two formats are supported. The flat SD model (FormatSD) is read from
// netCDF classic files: datasets live in one flat list and carry
// attributes, and the file itself carries global attributes. HDF5
// (FormatH5) adds nested groups. Both are opened with Open:
//
//	f, err := uhdf.Open("granule.h5")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	d, err := f.OpenDataset("geo/latitude")
//	if err != nil {
//		return err
//	}
//	defer d.Close()
//
//	lat, err := uhdf.ReadAll[float64](d)
//
// Element types are reported as a Type. Reads either use the stored type
// (RawRead) or convert to the requested Go type (Read, ReadInto, ReadAll).
//
// Groups, datasets and attributes each own one handle into the underlying
// reader and should be closed when no longer needed. A value that becomes
// unreachable without Close releases its handle when the garbage collector
// reclaims it. Accessors are not safe for concurrent use.
package uhdf
