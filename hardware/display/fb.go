package display

import (
	"image"
	"image/color"

	"github.com/juju/errors"
	"github.com/temoto/panel/hardware/display/framebuffer"
)

var (
	colorOn  = color.RGBA{0x10, 0x10, 0x10, 0xff}
	colorOff = color.RGBA{0xc8, 0xd8, 0xc0, 0xff}
)

type fbDevice struct {
	fb  *framebuffer.Framebuffer
	pix []color.RGBA
}

// NewFb opens framebuffer device and returns display rendered into it
// with integer scale, centered.
func NewFb(dev string) (*Display, error) {
	fb, err := framebuffer.New(dev)
	if err != nil {
		return nil, errors.Annotatef(err, "framebuffer device=%s", dev)
	}
	size := fb.Size()
	d := New(DefaultWidth, DefaultLines, &fbDevice{
		fb:  fb,
		pix: make([]color.RGBA, size.X*size.Y),
	})
	return d, nil
}

func (f *fbDevice) Update(pix []byte, size image.Point) error {
	render(f.pix, f.fb.Size(), pix, size)
	if err := f.fb.Update(f.pix); err != nil {
		return err
	}
	return f.fb.Flush()
}

// render scales monochrome frame src (display layout) into RGBA dst.
func render(dst []color.RGBA, dstSize image.Point, src []byte, srcSize image.Point) {
	scale := minInt(dstSize.X/srcSize.X, dstSize.Y/srcSize.Y)
	if scale < 1 {
		scale = 1
	}
	offX := (dstSize.X - srcSize.X*scale) / 2
	offY := (dstSize.Y - srcSize.Y*scale) / 2
	for i := range dst {
		dst[i] = colorOff
	}
	for y := 0; y < srcSize.Y; y++ {
		for x := 0; x < srcSize.X; x++ {
			if src[(y/8)*srcSize.X+x]&(1<<uint(y%8)) == 0 {
				continue
			}
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					dx, dy := offX+x*scale+sx, offY+y*scale+sy
					if dx >= 0 && dx < dstSize.X && dy >= 0 && dy < dstSize.Y {
						dst[dy*dstSize.X+dx] = colorOn
					}
				}
			}
		}
	}
}
