package tele

import (
	"context"

	"github.com/temoto/panel/log2"
	tele_config "github.com/temoto/panel/tele/config"
)

// Teler interface Telemetry client, panel side.
// Not for external public usage.
type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	State(State)
	Error(error)
	Activity(Activity)
	Report(ctx context.Context) error
	// SetCommandFunc registers handler for remote button commands.
	SetCommandFunc(CommandFunc)
}

type CommandFunc func(context.Context, *Command) error

type stub struct{}

func (stub) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (stub) Close()                                                    {}
func (stub) State(State)                                               {}
func (stub) Error(error)                                               {}
func (stub) Activity(Activity)                                         {}
func (stub) Report(ctx context.Context) error                          { return nil }
func (stub) SetCommandFunc(CommandFunc)                                {}

func NewStub() Teler { return stub{} }
