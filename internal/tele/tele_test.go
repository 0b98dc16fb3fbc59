package tele_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/internal/tele"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
	tele_config "github.com/temoto/panel/tele/config"
)

type tenv struct {
	ctx    context.Context
	tele   tele_api.Teler
	out    <-chan tele.MockMessage
	inject func([]byte) bool
}

func newEnv(t testing.TB, fail func() bool) *tenv {
	trans, out, inject := tele.NewTransportMock(fail)
	env := &tenv{
		ctx:    context.Background(),
		tele:   tele.NewWithTransporter(trans),
		out:    out,
		inject: inject,
	}
	cfg := tele_config.Config{
		Enabled:     true,
		ClientID:    "panel1",
		PersistPath: t.TempDir(),
	}
	require.NoError(t, env.tele.Init(env.ctx, log2.NewTest(t, log2.LDebug), cfg))
	t.Cleanup(env.tele.Close)
	return env
}

func (self *tenv) recv(t testing.TB) (string, tele_api.Telemetry) {
	select {
	case m := <-self.out:
		var tm tele_api.Telemetry
		require.NoError(t, json.Unmarshal(m.Payload, &tm), string(m.Payload))
		return m.Topic, tm
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for telemetry")
	}
	return "", tele_api.Telemetry{}
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	trans, out, _ := tele.NewTransportMock(nil)
	tl := tele.NewWithTransporter(trans)
	require.NoError(t, tl.Init(context.Background(), log2.NewTest(t, log2.LDebug), tele_config.Config{}))
	tl.State(tele_api.StateMenu)
	tl.Activity(tele_api.Activity{Kind: tele_api.ActivityBack})
	tl.Error(fmt.Errorf("lost"))
	assert.NoError(t, tl.Report(context.Background()))
	tl.Close()
	assert.Len(t, out, 0)
}

func TestDelivery(t *testing.T) {
	t.Parallel()

	env := newEnv(t, nil)

	env.tele.State(tele_api.StateMenu)
	topic, tm := env.recv(t)
	assert.Equal(t, "w/state", topic)
	assert.Equal(t, "panel1", tm.ClientID)
	assert.Equal(t, tele_api.StateMenu, tm.State)
	assert.NotZero(t, tm.Time)

	// same state is not repeated
	env.tele.State(tele_api.StateMenu)
	env.tele.Activity(tele_api.Activity{Kind: tele_api.ActivityToggle, Table: "main", Label: "Sound", Status: "Off"})
	topic, tm = env.recv(t)
	assert.Equal(t, "w/activity", topic)
	require.NotNil(t, tm.Activity)
	assert.Equal(t, tele_api.ActivityToggle, tm.Activity.Kind)
	assert.Equal(t, "Off", tm.Activity.Status)
	assert.Equal(t, tele_api.StateMenu, tm.State)

	env.tele.Error(fmt.Errorf("display flush"))
	topic, tm = env.recv(t)
	assert.Equal(t, "w/error", topic)
	assert.Equal(t, "display flush", tm.Error)

	require.NoError(t, env.tele.Report(env.ctx))
	topic, tm = env.recv(t)
	assert.Equal(t, "w/state", topic)
	assert.True(t, tm.Report)
}

func TestRetry(t *testing.T) {
	t.Parallel()

	var failures int32 = 2
	env := newEnv(t, func() bool { return atomic.AddInt32(&failures, -1) >= 0 })
	env.tele.State(tele_api.StateIdle)
	topic, tm := env.recv(t)
	assert.Equal(t, "w/state", topic)
	assert.Equal(t, tele_api.StateIdle, tm.State)
}

func TestCommand(t *testing.T) {
	t.Parallel()

	type Case struct {
		name    string
		payload string
		handler func(*tele_api.Command) error
		expect  *tele_api.Command
		errText string
	}
	cases := []Case{
		{name: "button", payload: `{"button":"up","hold_ms":50}`,
			expect: &tele_api.Command{Button: "up", HoldMs: 50}},
		{name: "report", payload: `{"report":true}`,
			expect: &tele_api.Command{Report: true}},
		{name: "malformed", payload: `{"button":`, errText: "tele command"},
		{name: "empty", payload: `{}`, errText: "tele command empty not valid"},
		{name: "handler-error", payload: `{"button":"left"}`,
			handler: func(*tele_api.Command) error { return fmt.Errorf("unknown button=left") },
			errText: "unknown button=left"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newEnv(t, nil)
			var got *tele_api.Command
			env.tele.SetCommandFunc(func(_ context.Context, cmd *tele_api.Command) error {
				got = cmd
				if c.handler != nil {
					return c.handler(cmd)
				}
				return nil
			})
			assert.True(t, env.inject([]byte(c.payload)))
			if c.errText == "" {
				assert.Equal(t, c.expect, got)
				assert.Len(t, env.out, 0)
				return
			}
			topic, tm := env.recv(t)
			assert.Equal(t, "w/error", topic)
			assert.Contains(t, tm.Error, c.errText)
		})
	}
}

func TestCommandNoHandler(t *testing.T) {
	t.Parallel()

	env := newEnv(t, nil)
	assert.True(t, env.inject([]byte(`{"button":"select"}`)))
	topic, tm := env.recv(t)
	assert.Equal(t, "w/error", topic)
	assert.Contains(t, tm.Error, "no handler")
}

func TestTopic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "panel1/r/c", tele.Topic("panel1", "r/c"))
}
