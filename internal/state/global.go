package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/helpers/atomic_clock"
	"github.com/temoto/panel/internal/settings"
	"github.com/temoto/panel/internal/types"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Clock        types.Clock
	Config       *Config
	Hardware     hardware // hardware.go
	Log          *log2.Log
	Settings     *settings.Store
	Tele         tele_api.Teler

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log, teler tele_api.Teler) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}
	if teler == nil {
		teler = tele_api.NewStub()
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Clock: atomic_clock.Monotonic{},
		Log:   log,
		Tele:  teler,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg

	g.Log.Infof("build version=%s", g.BuildVersion)

	if g.Config.Persist.Root == "" {
		g.Config.Persist.Root = DefaultPersistRoot
		g.Log.Errorf("config: persist.root=empty changed=%s", g.Config.Persist.Root)
	}
	g.Log.Debugf("config: persist.root=%s", g.Config.Persist.Root)
	if g.Config.Settings.Size <= 0 {
		g.Config.Settings.Size = settings.DefaultSize
	}
	if g.Config.Hardware.Display.Driver == "" {
		g.Config.Hardware.Display.Driver = DisplayMock
	}

	// Since tele is remote error reporting mechanism, it must be inited before anything else
	if g.Config.Tele.PersistPath == "" {
		g.Config.Tele.PersistPath = filepath.Join(g.Config.Persist.Root, "tele")
	}
	// Tele.Init gets g.Log clone before SetErrorFunc, so Tele.Log.Error doesn't recurse on itself
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Tele); err != nil {
		g.Tele = tele_api.NewStub()
		return errors.Annotate(err, "tele init")
	}
	g.Log.SetErrorFunc(g.Tele.Error)
	g.Tele.State(tele_api.StateBoot)

	const initTasks = 3
	wg := sync.WaitGroup{}
	wg.Add(initTasks)
	errch := make(chan error, initTasks)

	go helpers.WrapErrChan(&wg, errch, g.initSettings)
	go helpers.WrapErrChan(&wg, errch, g.initDisplay)
	go helpers.WrapErrChan(&wg, errch, g.initInput)
	wg.Wait()
	close(errch)

	return helpers.FoldErrChan(errch)
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

// StopWait stops alive, waits for workers, closes hardware and telemetry.
func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	ok := true
	select {
	case <-g.Alive.WaitChan():
	case <-time.After(timeout):
		ok = false
	}
	g.closeHardware()
	g.Tele.Close()
	return ok
}

func (g *Global) initSettings() error {
	if g.Settings != nil { // test context
		return nil
	}
	s, err := settings.Open(g.Config.Persist.Root, g.Config.Settings.Size, g.Log)
	if err != nil {
		return errors.Annotate(err, "initSettings")
	}
	g.Settings = s
	return nil
}

func (g *Global) initDisplay() error {
	d, err := g.Display()
	if d != nil {
		_ = d.Clear()
	}
	return err
}

func (g *Global) initInput() error {
	_, err := g.Input()
	return err
}
