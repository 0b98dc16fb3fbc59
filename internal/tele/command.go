package tele

import (
	"context"

	"github.com/juju/errors"
	tele_api "github.com/temoto/panel/tele"
)

// onCommandMessage always acknowledges, malformed commands will not get better on redelivery.
func (self *tele) onCommandMessage(ctx context.Context, payload []byte) bool {
	cmd, err := tele_api.ParseCommand(payload)
	if err != nil {
		self.log.Errorf("tele command parse payload=%x err=%v", payload, err)
		self.Error(err)
		return true
	}
	self.log.Debugf("tele command=%#v", cmd)

	self.Lock()
	f := self.onCommand
	self.Unlock()
	if f == nil {
		self.Error(errors.Errorf("tele command=%#v no handler", cmd))
		return true
	}
	if err = f(ctx, cmd); err != nil {
		err = errors.Annotatef(err, "tele command=%#v", cmd)
		self.log.Errorf("%v", err)
		self.Error(err)
	}
	return true
}
