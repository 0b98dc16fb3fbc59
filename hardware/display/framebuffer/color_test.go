package framebuffer

import (
	"image/color"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGB565(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input  color.RGBA
		expect uint16
	}{
		{color.RGBA{0, 0, 0, 0}, 0},
		{color.RGBA{0, 0, 0, 0xff}, 0},
		{color.RGBA{0xff, 0xff, 0xff, 0xff}, 0xffff},
		{color.RGBA{0xff, 0x00, 0x00, 0xff}, 0xf800},
		{color.RGBA{0x00, 0xff, 0x00, 0xff}, 0x07e0},
		{color.RGBA{0x00, 0x00, 0xff, 0xff}, 0x001f},
		{color.RGBA{0x0c, 0x0c, 0x0c, 0xff}, 0x0861},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, encode565(c.input), c.input)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	vinfo := rgb565
	vinfo.Xres, vinfo.Yres, vinfo.Bits_per_pixel = 2, 1, 16
	buf := make([]byte, 4)
	cs := []color.RGBA{{0xff, 0xff, 0xff, 0xff}, {0xff, 0x00, 0x00, 0xff}}
	require.NoError(t, encode(buf, &vinfo, cs))
	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0xf8}, buf)

	vinfo = xrgb8888
	vinfo.Xres, vinfo.Yres, vinfo.Bits_per_pixel = 1, 1, 32
	buf = make([]byte, 4)
	require.NoError(t, encode(buf, &vinfo, cs[1:]))
	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0x00}, buf)

	vinfo = variableScreenInfo{Xres: 1, Yres: 1, Bits_per_pixel: 8}
	err := encode(buf, &vinfo, cs)
	assert.True(t, errors.IsNotSupported(err), err)
}
