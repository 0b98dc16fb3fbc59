// Package display implements small monochrome graphic display with
// pixel cursor and built-in 5x8 font, layout of PCD8544 (Nokia 5110) memory:
// each byte is 8 pixel vertical column, LSB on top, lines of 8 pixels.
package display

import (
	"image"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/skip2/go-qrcode"
	"github.com/temoto/panel/internal/types"
)

const (
	DefaultWidth = 84
	DefaultLines = 6
	CharWidth    = 6

	// GlyphArrow is right pointing arrow, use inside strings.
	GlyphArrow = "\x80"
)

// Device receives whole frame on Flush.
type Device interface {
	Update(pix []byte, size image.Point) error
}

type Contraster interface {
	SetContrast(v uint8) error
}

type Display struct {
	mu    sync.Mutex
	pix   []byte
	width int
	lines int
	x     int
	line  int
	dev   Device
}

var _ types.Display = new(Display) // compile-time interface test

func New(width, lines int, dev Device) *Display {
	if width <= 0 || lines <= 0 {
		panic("code error display size must be positive")
	}
	return &Display{
		pix:   make([]byte, width*lines),
		width: width,
		lines: lines,
		dev:   dev,
	}
}

func NewMock() *Display { return New(DefaultWidth, DefaultLines, nil) }

func (d *Display) SetDevice(dev Device) {
	d.mu.Lock()
	d.dev = dev
	d.mu.Unlock()
}

func (d *Display) Width() int { return d.width }
func (d *Display) Lines() int { return d.lines }
func (d *Display) Size() image.Point {
	return image.Point{X: d.width, Y: d.lines * 8}
}

func (d *Display) SetCursor(x, line int) { d.x, d.line = x, line }
func (d *Display) Cursor() (int, int)    { return d.x, d.line }

func (d *Display) Clear() error {
	d.mu.Lock()
	for i := range d.pix {
		d.pix[i] = 0
	}
	d.mu.Unlock()
	d.SetCursor(0, 0)
	return d.Flush()
}

func (d *Display) ClearSpace() {
	d.mu.Lock()
	for i := 0; i < d.width*(d.lines-1); i++ {
		d.pix[i] = 0
	}
	d.mu.Unlock()
	d.SetCursor(0, 0)
}

func (d *Display) Print(s string) {
	for i := 0; i < len(s); i++ {
		g := glyph(s[i])
		for _, b := range g {
			d.put(b)
		}
		d.put(0x00)
	}
}

func (d *Display) PrintReverse(s string) {
	for i := 0; i < len(s); i++ {
		g := glyph(s[i])
		for _, b := range g {
			d.put(^b)
		}
		d.put(0xff)
	}
}

func (d *Display) StringWidth(s string) int { return len(s) * CharWidth }

func (d *Display) PrintJustified(s string, just types.Justify, pad int) {
	n := len(s)
	switch just {
	case types.JustifyLeft:
		d.Print(s)
		if pad > n {
			d.FillTo(d.x+(pad-n)*CharWidth, 0x00)
		}

	case types.JustifyRight:
		if pad > n {
			d.SetCursor(maxInt(d.x-pad*CharWidth, 0), d.line)
			d.FillTo(d.x+(pad-n)*CharWidth, 0x00)
		} else {
			d.SetCursor(maxInt(d.x-n*CharWidth, 0), d.line)
		}
		d.Print(s)

	case types.JustifyCenter:
		if pad > n {
			d.SetCursor(maxInt(d.x-pad*CharWidth/2, 0), d.line)
			padding := (pad - n) * CharWidth / 2
			d.FillTo(d.x+padding, 0x00)
			d.Print(s)
			d.FillTo(d.x+padding, 0x00)
		} else {
			d.SetCursor(maxInt(d.x-n*CharWidth/2, 0), d.line)
			d.Print(s)
		}

	default:
		panic("code error invalid justify")
	}
}

func (d *Display) PrintCenteredReverse(s string, centerX int, padWidth int) {
	w := d.StringWidth(s)
	if padWidth > w {
		start := centerX - (padWidth/2 + padWidth%2)
		d.SetCursor(start, d.line)
		d.FillTo(centerX-w/2, 0xff)
		d.PrintReverse(s)
		d.FillTo(start+padWidth, 0xff)
	} else {
		d.SetCursor(centerX-w/2, d.line)
		d.PrintReverse(s)
	}
}

func (d *Display) FillTo(x int, pattern byte) {
	x--
	if x < 0 {
		return
	}
	d.DrawRow(d.x, x, d.line, pattern)
}

func (d *Display) FillToEnd(pattern byte) {
	d.DrawRow(d.x, d.width-1, d.line, pattern)
}

func (d *Display) DrawRow(x1, x2, line int, pattern byte) {
	d.SetCursor(x1, line)
	for x := x1; x <= x2; x++ {
		d.put(pattern)
	}
}

func (d *Display) Flush() error {
	d.mu.Lock()
	dev := d.dev
	var pix []byte
	if dev != nil {
		pix = append([]byte(nil), d.pix...)
	}
	d.mu.Unlock()
	if dev == nil {
		return nil
	}
	return errors.Annotate(dev.Update(pix, d.Size()), "display flush")
}

func (d *Display) SetContrast(v uint8) error {
	d.mu.Lock()
	dev := d.dev
	d.mu.Unlock()
	if c, ok := dev.(Contraster); ok {
		return c.SetContrast(v)
	}
	return nil
}

// QR draws text as QR code in the middle of empty screen.
func (d *Display) QR(text string, border bool) error {
	qr, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return errors.Annotate(err, "QR")
	}
	qr.DisableBorder = !border
	bitmap := qr.Bitmap()
	n := len(bitmap)
	size := d.Size()
	scale := minInt(size.X, size.Y) / n
	if scale < 1 {
		return errors.Errorf("QR size=%d > display size=%s", n, size.String())
	}
	offX := (size.X - n*scale) / 2
	offY := (size.Y - n*scale) / 2

	d.mu.Lock()
	for i := range d.pix {
		d.pix[i] = 0
	}
	for y, row := range bitmap {
		for x, on := range row {
			if !on {
				continue
			}
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					d.set(offX+x*scale+sx, offY+y*scale+sy, true)
				}
			}
		}
	}
	d.mu.Unlock()
	return d.Flush()
}

func (d *Display) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.pix...)
}

// LineBytes returns copy of pixel columns of one text line.
func (d *Display) LineBytes(line int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.pix[line*d.width:(line+1)*d.width]...)
}

func (d *Display) Pixel(x, y int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.get(x, y)
}

// String2 renders ascii art, two characters per pixel.
func (d *Display) String2() string {
	size := d.Size()
	b := strings.Builder{}
	b.Grow((size.X*2*3 + 1) * size.Y)
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if d.get(x, y) {
				b.WriteString("██")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

// put writes one column at cursor and advances, clipped to screen.
func (d *Display) put(b byte) {
	if d.x >= 0 && d.x < d.width && d.line >= 0 && d.line < d.lines {
		d.mu.Lock()
		d.pix[d.line*d.width+d.x] = b
		d.mu.Unlock()
	}
	d.x++
}

func (d *Display) get(x, y int) bool {
	return d.pix[(y/8)*d.width+x]&(1<<uint(y%8)) != 0
}

func (d *Display) set(x, y int, on bool) {
	i := (y/8)*d.width + x
	if on {
		d.pix[i] |= 1 << uint(y%8)
	} else {
		d.pix[i] &^= 1 << uint(y%8)
	}
}

func minInt(i1, i2 int) int {
	if i1 <= i2 {
		return i1
	}
	return i2
}

func maxInt(i1, i2 int) int {
	if i1 >= i2 {
		return i1
	}
	return i2
}
