package subcmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/internal/state"
)

func TestParse(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *state.Config) error { return nil }
	mods := []Mod{{Name: "run", Main: noop}, {Name: "sim", Main: noop}}

	m, err := Parse("sim", mods)
	require.NoError(t, err)
	assert.Equal(t, "sim", m.Name)

	_, err = Parse("", mods)
	assert.EqualError(t, err, "empty command")
	_, err = Parse("fly", mods)
	assert.EqualError(t, err, "unknown command='fly'")
	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{Main: noop}}) })
}

func TestStopContext(t *testing.T) {
	t.Parallel()

	a := alive.NewAlive()
	ctx := StopContext(context.Background(), a)
	assert.NoError(t, ctx.Err())
	a.Stop()
	<-ctx.Done()
	assert.Equal(t, context.Canceled, ctx.Err())
}
