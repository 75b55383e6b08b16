package dcmpix_test

import (
	"testing"

	"github.com/mdouchement/dcmpix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameGenerator(t *testing.T) {
	g := dcmpix.FilenameGenerator{Prefix: "/tmp/out", Count: 3}
	require.NoError(t, g.Generate())
	assert.Equal(t, []string{"/tmp/out0", "/tmp/out1", "/tmp/out2"}, g.Filenames())

	g = dcmpix.FilenameGenerator{Prefix: "slice", Pattern: "_%03d.dcm", Count: 2}
	require.NoError(t, g.Generate())
	name, ok := g.Filename(1)
	assert.True(t, ok)
	assert.Equal(t, "slice_001.dcm", name)
	_, ok = g.Filename(2)
	assert.False(t, ok)

	g = dcmpix.FilenameGenerator{Prefix: "single", Pattern: ".dcm", Count: 1}
	require.NoError(t, g.Generate())
	assert.Equal(t, []string{"single.dcm"}, g.Filenames())

	g = dcmpix.FilenameGenerator{Prefix: "/data/100%!x/out", Pattern: "%d", Count: 2}
	require.NoError(t, g.Generate())
	assert.Equal(t, []string{"/data/100%!x/out0", "/data/100%!x/out1"}, g.Filenames())
}

func TestFilenameGeneratorErrors(t *testing.T) {
	for _, g := range []dcmpix.FilenameGenerator{
		{Prefix: "a", Pattern: ".dcm", Count: 2},
		{Prefix: "a", Pattern: "%s%s", Count: 2},
		{Prefix: "a", Pattern: "%d", Count: -1},
		{Prefix: "a", Pattern: "%.0f", Count: 2},
	} {
		err := g.Generate()
		assert.IsType(t, dcmpix.ConfigurationError(""), errors.Cause(err), g.Pattern)
		_, ok := g.Filename(0)
		assert.False(t, ok)
	}
}

func TestFilename(t *testing.T) {
	f := dcmpix.Filename("/data/study/image.dcm")
	assert.Equal(t, "/data/study/", f.Path())
	assert.Equal(t, "image.dcm", f.Name())
	assert.Equal(t, ".dcm", f.Extension())
	assert.True(t, f.IsIdentical("/data/study/../study/image.dcm"))
	assert.False(t, f.IsIdentical("/data/study/image2.dcm"))
}
