package tele

import (
	"context"

	"github.com/juju/errors"
	tele_api "github.com/temoto/panel/tele"
)

const logMsgDisabled = "tele disabled"

func (self *tele) Error(e error) {
	if e == nil || !self.config.Enabled {
		return
	}

	self.log.Debugf("tele.Error: " + errors.ErrorStack(e))
	tm := tele_api.Telemetry{Error: e.Error()}
	if err := self.qpushTelemetry(tm); err != nil {
		self.log.Errorf("CRITICAL qpushTelemetry telemetry_error=%s err=%v", tm.Error, err)
	}
}

func (self *tele) Activity(a tele_api.Activity) {
	if !self.config.Enabled {
		return
	}
	if err := self.qpushTelemetry(tele_api.Telemetry{Activity: &a}); err != nil {
		self.log.Errorf("CRITICAL qpushTelemetry activity=%#v err=%v", a, err)
	}
}

// Report publishes current state.
func (self *tele) Report(ctx context.Context) error {
	if !self.config.Enabled {
		self.log.Infof(logMsgDisabled)
		return nil
	}
	err := self.qpushTelemetry(tele_api.Telemetry{Report: true})
	if err != nil {
		self.log.Errorf("CRITICAL qpushTelemetry report err=%v", err)
	}
	return err
}

// State is sent only on change.
func (self *tele) State(s tele_api.State) {
	self.Lock()
	changed := self.currentState != s
	self.currentState = s
	self.Unlock()
	if !changed || !self.config.Enabled {
		return
	}
	if err := self.qpushTelemetry(tele_api.Telemetry{State: s}); err != nil {
		self.log.Errorf("CRITICAL qpushTelemetry state=%s err=%v", s, err)
	}
}

func (self *tele) SetCommandFunc(f tele_api.CommandFunc) {
	self.Lock()
	self.onCommand = f
	self.Unlock()
}
