package tele

import (
	"context"

	"github.com/temoto/panel/log2"
	tele_config "github.com/temoto/panel/tele/config"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - Send* deliver within timeout or fail; success includes ack from receiver
// - hide "connection" concept from upstream API or errors; transport delivers messages at least once
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, onCommand CommandCallback, willPayload []byte) error
	Close()
	SendState(payload []byte) bool
	SendActivity(payload []byte) bool
	SendError(payload []byte) bool
}

// CommandCallback returns false to request redelivery.
type CommandCallback func(context.Context, []byte) bool

// transportMock records payloads, used in tests and when transport is not needed.
type transportMock struct {
	onCommand CommandCallback
	ctx       context.Context
	fail      func() bool
	outCh     chan MockMessage
}

type MockMessage struct {
	Topic   string
	Payload []byte
}

// NewTransportMock returns transport that delivers sent messages into returned channel.
// fail may be nil; when it returns true, send reports failure.
func NewTransportMock(fail func() bool) (Transporter, <-chan MockMessage, func(payload []byte) bool) {
	t := &transportMock{fail: fail, outCh: make(chan MockMessage, 64)}
	inject := func(payload []byte) bool { return t.onCommand(t.ctx, payload) }
	return t, t.outCh, inject
}

func (self *transportMock) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config, onCommand CommandCallback, willPayload []byte) error {
	self.ctx = ctx
	self.onCommand = onCommand
	return nil
}

func (self *transportMock) Close() {}

func (self *transportMock) send(topic string, payload []byte) bool {
	if self.fail != nil && self.fail() {
		return false
	}
	self.outCh <- MockMessage{Topic: topic, Payload: payload}
	return true
}

func (self *transportMock) SendState(payload []byte) bool { return self.send(topicState, payload) }
func (self *transportMock) SendActivity(payload []byte) bool {
	return self.send(topicActivity, payload)
}
func (self *transportMock) SendError(payload []byte) bool { return self.send(topicError, payload) }
