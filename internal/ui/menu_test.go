package ui_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/hardware/display"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/internal/ui"
)

func TestNewMenu(t *testing.T) {
	t.Parallel()

	cmd := commands("A")
	cases := []struct {
		name   string
		tables []ui.Table
		root   ui.TableID
		expect []string
	}{
		{"ok", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{ui.SubMenu("Setup", 1)}},
			{Name: "setup", Kind: ui.TableSub, Back: 0, Items: cmd},
		}, 0, nil},
		{"ok-dismissible", []ui.Table{{Name: "main", Kind: ui.TableMain, Back: ui.NoTable, Items: cmd}}, 0, nil},
		{"empty", nil, 0, []string{"empty not valid"}},
		{"root-range", []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: cmd}}, 3, []string{"root=3"}},
		{"root-sub", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: cmd},
			{Name: "setup", Kind: ui.TableSub, Back: 0, Items: cmd},
		}, 1, []string{"root table=setup kind=sub"}},
		{"no-items", []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0}}, 0, []string{"table=main no items"}},
		{"main-back-other", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 1, Items: cmd},
			{Name: "other", Kind: ui.TableMain, Back: 1, Items: cmd},
		}, 0, []string{"table=main main back=1"}},
		{"main-non-root", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{ui.SubMenu("Setup", 1)}},
			{Name: "setup", Kind: ui.TableMain, Back: ui.NoTable, Items: cmd},
		}, 0, []string{"table=setup main is not root"}},
		{"sub-back-not-parent", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{ui.SubMenu("A", 1), ui.SubMenu("B", 2)}},
			{Name: "a", Kind: ui.TableSub, Back: 0, Items: cmd},
			{Name: "b", Kind: ui.TableSub, Back: 1, Items: cmd},
		}, 0, []string{"table=b back=a has no submenu item leading here"}},
		{"sub-back-self", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: cmd},
			{Name: "setup", Kind: ui.TableSub, Back: 1, Items: cmd},
		}, 0, []string{"table=setup sub back=1"}},
		{"sub-back-dangling", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: cmd},
			{Name: "setup", Kind: ui.TableSub, Back: 7, Items: cmd},
		}, 0, []string{"table=setup sub back=7"}},
		{"cycle", []ui.Table{
			{Name: "main", Kind: ui.TableMain, Back: 0, Items: cmd},
			{Name: "a", Kind: ui.TableSub, Back: 2, Items: cmd},
			{Name: "b", Kind: ui.TableSub, Back: 1, Items: cmd},
		}, 0, []string{"table=a back chain cycle", "table=b back chain cycle"}},
		{"items", []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{
			{Kind: ui.ItemCommand, Label: "c"},
			{Kind: ui.ItemToggle, Label: "t"},
			ui.SubMenu("s", 5),
			{Label: "x"},
		}}}, 0, []string{"item=c command=nil", "item=t toggle=nil", "item=s submenu=5", "item=x kind=ItemKind(0)"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			m, err := ui.NewMenu(c.tables, c.root)
			if c.expect == nil {
				require.NoError(t, err, errors.ErrorStack(err))
				assert.Equal(t, c.root, m.Root())
				return
			}
			require.Error(t, err)
			assert.Nil(t, m)
			for _, s := range c.expect {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestMenuLookup(t *testing.T) {
	t.Parallel()

	m := mustMenu(t, []ui.Table{
		{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{ui.SubMenu("Setup", 1)}},
		{Name: "setup", Kind: ui.TableSub, Back: 0, Items: commands("A")},
	}, 0)
	id, ok := m.Lookup("setup")
	assert.True(t, ok)
	assert.Equal(t, ui.TableID(1), id)
	_, ok = m.Lookup("nope")
	assert.False(t, ok)
	assert.True(t, m.Permanent(0))
	assert.False(t, m.Permanent(1))
	assert.Panics(t, func() { m.Table(2) })
}

func TestMenuPaging(t *testing.T) {
	t.Parallel()

	type cursor struct{ sel, top int }
	cases := []struct {
		name   string
		items  int
		expect []cursor // after each Down
	}{
		{"four-entries", 4, []cursor{{1, 0}, {2, 0}, {3, 0}, {3, 0}, {3, 0}}},
		{"five-entries", 5, []cursor{{1, 0}, {2, 0}, {3, 0}, {4, 1}, {4, 1}}},
		{"single", 1, []cursor{{0, 0}, {0, 0}}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			labels := make([]string, c.items)
			for i := range labels {
				labels[i] = fmt.Sprintf("Item%d", i+1)
			}
			env := newEnv(t)
			m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: commands(labels...)}}, 0)
			s := env.ui.NewSession(m)
			assert.Equal(t, 0, s.Selected())
			assert.Equal(t, 0, s.Top())

			down := types.Event{Button: types.ButtonDown, Phase: types.PhasePushed}
			for i, expect := range c.expect {
				done, err := s.Handle(env.ctx, down)
				require.NoError(t, err)
				require.False(t, done)
				assert.Equal(t, expect, cursor{s.Selected(), s.Top()}, "press=%d", i+1)
				assert.True(t, s.Top() <= s.Selected() && s.Selected() < s.Top()+ui.PageSize)
			}

			// Repeated moves like Pushed, back to first entry
			up := types.Event{Button: types.ButtonUp, Phase: types.PhaseRepeated}
			for i := 0; i < c.items+2; i++ {
				_, err := s.Handle(env.ctx, up)
				require.NoError(t, err)
				assert.True(t, s.Top() <= s.Selected() && s.Selected() < s.Top()+ui.PageSize)
			}
			assert.Equal(t, cursor{0, 0}, cursor{s.Selected(), s.Top()})
		})
	}
}

func TestMenuIgnoresReleased(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	called := 0
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: ui.NoTable, Items: []ui.Item{
		ui.Command("A", func(context.Context) error { called++; return nil }),
		ui.Command("B", noopCommand),
	}}}, 0)
	s := env.ui.NewSession(m)
	for _, b := range []types.ButtonID{types.ButtonDown, types.ButtonSelect, types.ButtonBack} {
		done, err := s.Handle(env.ctx, types.Event{Button: b, Phase: types.PhaseReleased})
		require.NoError(t, err)
		assert.False(t, done)
	}
	done, err := s.Handle(env.ctx, types.Event{Button: types.ButtonSelect, Phase: types.PhaseRepeated})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, 0, called)
}

func TestMenuPermanentRoot(t *testing.T) {
	t.Parallel()

	var env *tenv
	steps := []step{
		check(func() {
			bar := env.display.LineBytes(5)
			assert.Equal(t, make([]byte, 84-45), bar[45:], "right button must be blank")
			assert.Equal(t, byte(0xff), bar[0], "Select button")
		}),
	}
	steps = append(steps, repeatN(push(types.ButtonBack), 5)...)
	env = newEnv(t, steps...)
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: commands("A", "B")}}, 0)
	err := env.ui.RunMenu(env.ctx, m)
	assert.Equal(t, context.Canceled, err, "menu must run until ctx is done")
	assert.True(t, env.script.done())
}

func TestMenuDismissibleRoot(t *testing.T) {
	t.Parallel()

	var env *tenv
	env = newEnv(t,
		check(func() {
			bar := env.display.LineBytes(5)
			assert.Equal(t, byte(0xff), bar[45], "Back button")
		}),
		push(types.ButtonBack),
		push(types.ButtonDown),
	)
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: ui.NoTable, Items: commands("A", "B")}}, 0)
	require.NoError(t, env.ui.RunMenu(env.ctx, m))
	assert.False(t, env.script.done(), "run must return right after Back")
}

func TestMenuSubmenu(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	m := mustMenu(t, []ui.Table{
		{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{ui.Command("A", noopCommand), ui.SubMenu("Setup", 1)}},
		{Name: "setup", Kind: ui.TableSub, Back: 0, Items: []ui.Item{ui.Command("X", noopCommand), ui.SubMenu("Deep", 2)}},
		{Name: "deep", Kind: ui.TableSub, Back: 1, Items: commands("Y", "Z")},
	}, 0)
	s := env.ui.NewSession(m)
	handle := func(b types.ButtonID) {
		done, err := s.Handle(env.ctx, types.Event{Button: b, Phase: types.PhasePushed})
		require.NoError(t, err)
		require.False(t, done)
	}
	handle(types.ButtonDown)
	handle(types.ButtonSelect)
	assert.Equal(t, ui.TableID(1), s.Table())
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, byte(0xff), env.display.LineBytes(5)[45], "sub menu shows Back")

	handle(types.ButtonDown)
	handle(types.ButtonSelect)
	handle(types.ButtonDown)
	assert.Equal(t, ui.TableID(2), s.Table())
	assert.Equal(t, 1, s.Selected())

	handle(types.ButtonBack)
	assert.Equal(t, ui.TableID(1), s.Table())
	assert.Equal(t, 0, s.Selected(), "cursor reset on return")
	handle(types.ButtonBack)
	assert.Equal(t, ui.TableID(0), s.Table())
	handle(types.ButtonBack)
	assert.Equal(t, ui.TableID(0), s.Table(), "permanent root")
}

func TestMenuCommand(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	var calls []string
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{
		ui.Command("A", func(context.Context) error { calls = append(calls, "A"); return nil }),
		ui.Command("Fail", func(context.Context) error { calls = append(calls, "Fail"); return errors.New("boom") }),
		ui.Command("Draw", func(context.Context) error {
			calls = append(calls, "Draw")
			env.display.ClearSpace()
			env.display.Print("garbage")
			return nil
		}),
	}}}, 0)
	s := env.ui.NewSession(m)
	initial := env.display.Bytes()
	handle := func(b types.ButtonID) {
		done, err := s.Handle(env.ctx, types.Event{Button: b, Phase: types.PhasePushed})
		require.NoError(t, err)
		require.False(t, done)
	}
	handle(types.ButtonDown)
	handle(types.ButtonSelect)
	assert.Equal(t, 0, s.Selected(), "command error keeps menu running, table reselected")
	handle(types.ButtonDown)
	handle(types.ButtonDown)
	handle(types.ButtonSelect)
	assert.Equal(t, []string{"Fail", "Draw"}, calls)
	assert.Equal(t, 0, s.Selected())
	assert.Equal(t, initial, env.display.Bytes(), "menu redrawn after command")
}

func TestMenuCommandCancel(t *testing.T) {
	t.Parallel()

	env := newEnv(t, push(types.ButtonSelect))
	ctx, cancel := context.WithCancel(env.ctx)
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: []ui.Item{
		ui.Command("Stop", func(ctx context.Context) error { cancel(); return ctx.Err() }),
	}}}, 0)
	assert.Equal(t, context.Canceled, env.ui.RunMenu(ctx, m))
}

func TestMenuToggle(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	states := []string{"On", "Off", "Auto"}
	current := 0
	advances := 0
	toggle := func(advance bool) string {
		if advance {
			advances++
			current = (current + 1) % len(states)
		}
		return states[current]
	}
	items := commands("A", "B", "C", "D")
	items = append(items, ui.Toggle("Sound", toggle))
	m := mustMenu(t, []ui.Table{{Name: "main", Kind: ui.TableMain, Back: 0, Items: items}}, 0)
	s := env.ui.NewSession(m)
	for i := 0; i < 4; i++ {
		_, err := s.Handle(env.ctx, types.Event{Button: types.ButtonDown, Phase: types.PhasePushed})
		require.NoError(t, err)
	}
	require.Equal(t, 4, s.Selected())
	require.Equal(t, 1, s.Top())
	assert.Equal(t, 0, advances, "drawing must not advance")

	before := make([][]byte, 6)
	for line := range before {
		before[line] = env.display.LineBytes(line)
	}
	_, err := s.Handle(env.ctx, types.Event{Button: types.ButtonSelect, Phase: types.PhasePushed})
	require.NoError(t, err)
	assert.Equal(t, 1, advances)
	assert.Equal(t, "Off", states[current])
	assert.Equal(t, 4, s.Selected())
	assert.Equal(t, 1, s.Top())
	for line := range before {
		if line == 3 {
			assert.NotEqual(t, before[line], env.display.LineBytes(line), "toggle row must change")
			continue
		}
		assert.Equal(t, before[line], env.display.LineBytes(line), "line=%d", line)
	}

	expect := display.NewMock()
	expect.SetCursor(0, 3)
	expect.FillTo(3, 0xff)
	expect.PrintReverse("Sound")
	expect.FillTo(84-expect.StringWidth("Off"), 0xff)
	expect.PrintReverse("Off")
	assert.Equal(t, expect.LineBytes(3), env.display.LineBytes(3))
}

func TestMenuRender(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	m := mustMenu(t, []ui.Table{
		{Name: "main", Kind: ui.TableMain, Back: ui.NoTable, Items: []ui.Item{
			ui.Command("Run", noopCommand),
			ui.SubMenu("Setup", 1),
			ui.Toggle("Sound", func(bool) string { return "On" }),
		}},
		{Name: "setup", Kind: ui.TableSub, Back: 0, Items: commands("X")},
	}, 0)
	env.ui.NewSession(m)

	expect := display.NewMock()
	expect.SetCursor(0, 0)
	expect.FillTo(3, 0xff)
	expect.PrintReverse("Run")
	expect.FillToEnd(0xff)
	expect.SetCursor(0, 1)
	expect.FillTo(3, 0)
	expect.Print("Setup")
	expect.FillTo(84-6, 0)
	expect.Print(display.GlyphArrow)
	expect.SetCursor(0, 2)
	expect.FillTo(3, 0)
	expect.Print("Sound")
	expect.FillTo(84-12, 0)
	expect.Print("On")
	(&ui.UI{Display: expect}).DrawButtonBar("Select", "Back")
	assert.Equal(t, expect.Bytes(), env.display.Bytes(), "got:\n%s\nexpect:\n%s", env.display.String2(), expect.String2())
}

func TestDrawButtonBar(t *testing.T) {
	t.Parallel()

	repeatByte := func(b byte, n int) []byte {
		bs := make([]byte, n)
		for i := range bs {
			bs[i] = b
		}
		return bs
	}
	cases := []struct {
		name        string
		left, right string
		check       func(t testing.TB, over, bar []byte)
	}{
		{"both", "Select", "Back", func(t testing.TB, over, bar []byte) {
			assert.Equal(t, repeatByte(0x80, 39), over[:39])
			assert.Equal(t, repeatByte(0, 6), over[39:45])
			assert.Equal(t, repeatByte(0x80, 39), over[45:])
			assert.Equal(t, repeatByte(0xff, 2), bar[:2])
			assert.Equal(t, byte(0xff), bar[38])
			assert.Equal(t, repeatByte(0, 6), bar[39:45])
			assert.Equal(t, repeatByte(0xff, 8), bar[45:53])
			assert.Equal(t, repeatByte(0xff, 7), bar[77:])
		}},
		{"left-only", "Select", "", func(t testing.TB, over, bar []byte) {
			assert.Equal(t, repeatByte(0x80, 39), over[:39])
			assert.Equal(t, repeatByte(0, 45), over[39:])
			assert.Equal(t, repeatByte(0, 45), bar[39:])
		}},
		{"right-only", "", "Cancel", func(t testing.TB, over, bar []byte) {
			assert.Equal(t, repeatByte(0, 45), over[:45])
			assert.Equal(t, repeatByte(0, 45), bar[:45])
			assert.Equal(t, repeatByte(0x80, 39), over[45:])
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			d := display.NewMock()
			d.DrawRow(0, 83, 4, 0x55)
			d.DrawRow(0, 83, 5, 0x55)
			(&ui.UI{Display: d}).DrawButtonBar(c.left, c.right)
			c.check(t, d.LineBytes(4), d.LineBytes(5))
		})
	}
}
