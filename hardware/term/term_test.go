package term

import (
	"image"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/hardware/input"
	"github.com/temoto/panel/helpers/atomic_clock"
	"github.com/temoto/panel/internal/types"
)

func newSim(t testing.TB) (tcell.SimulationScreen, *Term, *input.Latch, *atomic_clock.Clock) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(84, 24)
	clock := atomic_clock.New(0)
	latch := input.NewLatch(clock)
	return screen, New(screen, latch), latch, clock
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	screen, term, _, _ := newSim(t)
	defer term.Close()
	size := image.Pt(84, 48)
	pix := make([]byte, 84*6)
	pix[0] = 0x01 // x=0 y=0
	pix[1] = 0x02 // x=1 y=1
	pix[2] = 0x03 // x=2 y=0,1
	pix[84*5+3] = 0x80
	require.NoError(t, term.Update(pix, size))

	cell := func(x, y int) rune {
		r, _, _, _ := screen.GetContent(x, y)
		return r
	}
	assert.Equal(t, '▀', cell(0, 0))
	assert.Equal(t, '▄', cell(1, 0))
	assert.Equal(t, '█', cell(2, 0))
	assert.Equal(t, ' ', cell(3, 0))
	assert.Equal(t, '▄', cell(3, 23))

	assert.Error(t, term.Update(pix[:10], size))
}

func TestRunKeys(t *testing.T) {
	t.Parallel()

	screen, term, latch, clock := newSim(t)
	defer term.Close()
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
	require.NoError(t, screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	term.Run(nil)

	assert.Equal(t, types.ButtonDown, latch.Sample())
	clock.Add(DefaultHold)
	assert.Equal(t, types.ButtonNone, latch.Sample())
}

func TestKeyButton(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key    tcell.Key
		r      rune
		expect types.ButtonID
	}{
		{tcell.KeyEnter, 0, types.ButtonSelect},
		{tcell.KeyEscape, 0, types.ButtonBack},
		{tcell.KeyBackspace2, 0, types.ButtonBack},
		{tcell.KeyUp, 0, types.ButtonUp},
		{tcell.KeyDown, 0, types.ButtonDown},
		{tcell.KeyRune, 'j', types.ButtonDown},
		{tcell.KeyRune, ' ', types.ButtonSelect},
		{tcell.KeyLeft, 0, types.ButtonNone},
	}
	for _, c := range cases {
		ev := tcell.NewEventKey(c.key, c.r, tcell.ModNone)
		assert.Equal(t, c.expect, KeyButton(ev), "key=%v rune=%q", c.key, c.r)
	}
}
