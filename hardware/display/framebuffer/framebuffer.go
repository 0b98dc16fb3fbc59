// Package framebuffer writes frames to Linux fbdev, e.g. /dev/fb1 of small SPI TFT.
package framebuffer

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

type Framebuffer struct {
	buf   []byte
	dev   *os.File
	finfo fixedScreenInfo
	vinfo variableScreenInfo
}

func New(dev string) (*Framebuffer, error) {
	devFile, err := os.OpenFile(dev, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.Annotate(err, "open")
	}
	fb := &Framebuffer{dev: devFile}
	fd := fb.dev.Fd()

	if err = ioctl(fd, getFixedScreenInfo, uintptr(unsafe.Pointer(&fb.finfo))); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getFixedScreenInfo")
	}

	if err = ioctl(fd, getVariableScreenInfo, uintptr(unsafe.Pointer(&fb.vinfo))); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getVariableScreenInfo")
	}

	fb.buf = make([]byte, fb.vinfo.Xres*fb.vinfo.Yres*(fb.vinfo.Bits_per_pixel/8))

	return fb, nil
}

func (fb *Framebuffer) Close() error {
	return fb.dev.Close()
}

func (fb *Framebuffer) Flush() error {
	_, err := fb.dev.WriteAt(fb.buf, 0)
	return errors.Annotate(err, "framebuffer write")
}

func (fb *Framebuffer) Size() image.Point {
	return image.Point{X: int(fb.vinfo.Xres), Y: int(fb.vinfo.Yres)}
}

// Sets all pixels in internal buffer, call Flush() to write to hardware.
func (fb *Framebuffer) Update(cs []color.RGBA) error {
	return encode(fb.buf, &fb.vinfo, cs)
}

func encode(buf []byte, vinfo *variableScreenInfo, cs []color.RGBA) error {
	n := int(vinfo.Xres * vinfo.Yres)
	if len(cs) < n {
		return errors.Errorf("code error framebuffer update pixels=%d expected=%d", len(cs), n)
	}
	cs = cs[:n]
	wordSize := vinfo.Bits_per_pixel / 8
	switch {
	case vinfo.Red == rgb565.Red && vinfo.Green == rgb565.Green && vinfo.Blue == rgb565.Blue:
		for i, c := range cs {
			offset := uint32(i) * wordSize
			binary.LittleEndian.PutUint16(buf[offset:], encode565(c))
		}
		return nil

	case vinfo.Bits_per_pixel == 32 && vinfo.Red == xrgb8888.Red && vinfo.Green == xrgb8888.Green && vinfo.Blue == xrgb8888.Blue:
		for i, c := range cs {
			offset := uint32(i) * wordSize
			binary.LittleEndian.PutUint32(buf[offset:], uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
		}
		return nil

	default:
		return errors.NotSupportedf("color model")
	}
}

var rgb565 = variableScreenInfo{
	Red:   bitField{Offset: 11, Length: 5, Right: 0},
	Green: bitField{Offset: 5, Length: 6, Right: 0},
	Blue:  bitField{Offset: 0, Length: 5, Right: 0},
}

var xrgb8888 = variableScreenInfo{
	Red:   bitField{Offset: 16, Length: 8, Right: 0},
	Green: bitField{Offset: 8, Length: 8, Right: 0},
	Blue:  bitField{Offset: 0, Length: 8, Right: 0},
}

func encode565(c color.RGBA) uint16 {
	return (uint16(c.R) & 0xf8 << 8) | (uint16(c.G) & 0xfc << 3) | (uint16(c.B) & 0xf8 >> 3)
}

func ioctl(fd uintptr, cmd uintptr, data uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, cmd, data); errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}
