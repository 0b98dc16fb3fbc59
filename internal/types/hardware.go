package types

type Justify uint8

const (
	JustifyLeft Justify = iota
	JustifyRight
	JustifyCenter
)

// Display is stateful text/graphics sink with pixel cursor.
// Coordinates: x in pixels, line is 8 pixel high text row.
// Patterns are vertical 8 pixel columns, LSB is top pixel.
type Display interface {
	Width() int
	Lines() int
	SetCursor(x, line int)
	Cursor() (x, line int)

	// ClearSpace blanks all lines above button bar and moves cursor to 0,0.
	ClearSpace()
	Print(s string)
	PrintReverse(s string)
	// PrintJustified aligns s against cursor x, pad is total width in characters.
	PrintJustified(s string, just Justify, pad int)
	// PrintCenteredReverse prints s inverted around centerX on current line,
	// padded with filled pixels to padWidth pixels.
	PrintCenteredReverse(s string, centerX int, padWidth int)
	StringWidth(s string) int

	// FillTo repeats pattern from cursor up to, not including, column x.
	FillTo(x int, pattern byte)
	FillToEnd(pattern byte)
	// DrawRow repeats pattern in columns x1..x2 inclusive, cursor ends after x2.
	DrawRow(x1, x2, line int, pattern byte)

	Flush() error
}
