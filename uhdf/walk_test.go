package uhdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	f := openH5Test(t)

	var paths []string
	kinds := map[string]string{}
	err := Walk(f, func(p string, obj any, err error) error {
		require.NoError(t, err)
		paths = append(paths, p)
		switch o := obj.(type) {
		case *File:
			kinds[p] = "file"
		case *Group:
			kinds[p] = "group"
			assert.Equal(t, p, o.Path())
		case *Dataset:
			kinds[p] = "dataset"
			assert.Equal(t, p, o.Path())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/cmpd", "/g1", "/g1/g2", "/g1/g2/ds", "/grid", "/text", "/u64"}, paths)
	assert.Equal(t, "file", kinds["/"])
	assert.Equal(t, "group", kinds["/g1/g2"])
	assert.Equal(t, "dataset", kinds["/g1/g2/ds"])
}

func TestWalkSkipDir(t *testing.T) {
	f := openH5Test(t)

	var paths []string
	err := Walk(f, func(p string, obj any, err error) error {
		paths = append(paths, p)
		if p == "/g1" || p == "/grid" {
			return SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/cmpd", "/g1", "/grid", "/text", "/u64"}, paths)
}

func TestWalkStops(t *testing.T) {
	f := openH5Test(t)
	stop := errors.New("stop")

	var paths []string
	err := Walk(f, func(p string, obj any, err error) error {
		paths = append(paths, p)
		if p == "/g1/g2" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"/", "/cmpd", "/g1", "/g1/g2"}, paths)
}

func TestWalkGroup(t *testing.T) {
	f := openH5Test(t)
	g, err := f.OpenGroup("g1")
	require.NoError(t, err)
	defer g.Close()

	var paths []string
	require.NoError(t, Walk(g, func(p string, obj any, err error) error {
		paths = append(paths, p)
		return err
	}))
	assert.Equal(t, []string{"/g1", "/g1/g2", "/g1/g2/ds"}, paths)
}

func TestWalkClosesObjects(t *testing.T) {
	f := openH5Test(t)

	var kept *Dataset
	require.NoError(t, Walk(f, func(p string, obj any, err error) error {
		if d, ok := obj.(*Dataset); ok && p == "/grid" {
			kept = d
		}
		return nil
	}))
	require.NotNil(t, kept)
	_, err := ReadAll[int32](kept)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWalkSD(t *testing.T) {
	f, err := Open(writeCDF(t))
	require.NoError(t, err)
	defer f.Close()

	var paths []string
	require.NoError(t, Walk(f, func(p string, obj any, err error) error {
		paths = append(paths, p)
		return err
	}))
	assert.Equal(t, []string{"/", "/grid", "/label", "/small"}, paths)
}
