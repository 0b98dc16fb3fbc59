// Package tele delivers panel state, user activity and errors to control
// side over MQTT and accepts remote button presses.
package tele

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/panel/helpers"
	"github.com/temoto/panel/log2"
	tele_api "github.com/temoto/panel/tele"
	tele_config "github.com/temoto/panel/tele/config"
	"github.com/temoto/spq"
)

const DefaultNetworkTimeout = 30 * time.Second

// Tele contract:
//   - Init() fails only with invalid config, network issues ignored
//   - State/Activity/Error public API calls block at most for disk write
//     network may be slow or absent, messages will be delivered in background
//   - messages are delivered at least once, in order of queue
type tele struct { //nolint:maligned
	sync.Mutex
	config       tele_config.Config
	log          *log2.Log
	transport    Transporter
	q            *spq.Queue
	stopCh       chan struct{}
	doneCh       chan struct{}
	backoff      helpers.Backoff
	currentState tele_api.State
	onCommand    tele_api.CommandFunc
	now          func() time.Time
	closeOnce    sync.Once
}

var _ tele_api.Teler = new(tele) // compile-time interface test

func New() tele_api.Teler {
	return &tele{}
}
func NewWithTransporter(trans Transporter) tele_api.Teler {
	return &tele{transport: trans}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.config = teleConfig
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.config.Enabled {
		self.log.Infof(logMsgDisabled)
		return nil
	}
	if self.config.ClientID == "" {
		self.config.ClientID = DefaultClientID
	}
	if self.now == nil {
		self.now = time.Now
	}
	self.stopCh = make(chan struct{})
	self.doneCh = make(chan struct{})
	self.backoff = helpers.Backoff{Min: 100 * time.Millisecond, Max: DefaultNetworkTimeout, K: 2}

	if self.config.PersistPath == "" {
		panic("code error must set self.config.PersistPath")
	}
	var err error
	self.q, err = spq.Open(self.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}

	willPayload, err := json.Marshal(self.telemetry(tele_api.Telemetry{State: tele_api.StateDisconnected}))
	if err != nil {
		return errors.Annotate(err, "tele will")
	}
	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(ctx, log, self.config, self.onCommandMessage, willPayload); err != nil {
		self.q.Close()
		return errors.Annotate(err, "tele transport")
	}

	go self.qworker()
	return nil
}

// Close stops delivery worker, undelivered messages stay in persistent queue.
func (self *tele) Close() {
	if !self.config.Enabled || self.q == nil {
		return
	}
	self.closeOnce.Do(func() {
		close(self.stopCh)
		self.q.Close()
		<-self.doneCh
		self.transport.Close()
	})
}

// denote value type in persistent queue bytes form
const (
	qTelemetry byte = 2
)

func (self *tele) qworker() {
	defer close(self.doneCh)
	for {
		box, err := self.q.Peek()
		switch err {
		case nil:
			// success path
			b := box.Bytes()
			var del bool
			del, err = self.qhandle(b)
			if err != nil {
				self.log.Errorf("tele qhandle b=%x err=%v", b, err)
			}
			if del {
				self.backoff.Reset()
				if err = self.q.Delete(box); err != nil {
					self.log.Errorf("tele qhandle Delete b=%x err=%v", b, err)
				}
				continue
			}
			if err = self.q.DeletePush(box); err != nil {
				self.log.Errorf("tele qhandle DeletePush b=%x err=%v", b, err)
			}
			self.backoff.Failure()
			select {
			case <-self.stopCh:
				return
			case <-time.After(self.backoff.DelayBefore()):
			}

		case spq.ErrClosed:
			select {
			case <-self.stopCh: // success path
			default:
				self.log.Errorf("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			self.log.Errorf("CRITICAL tele spq err=%v", err)
			select {
			case <-self.stopCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// qhandle returns true when message is done: delivered or hopeless.
func (self *tele) qhandle(b []byte) (bool, error) {
	if len(b) == 0 {
		return true, errors.Errorf("tele spq peek=empty")
	}

	switch b[0] {
	case qTelemetry:
		var tm tele_api.Telemetry
		if err := json.Unmarshal(b[1:], &tm); err != nil {
			return true, err
		}
		return self.qsendTelemetry(&tm, b[1:]), nil

	default:
		err := errors.Errorf("unknown kind=%d", b[0])
		return true, err
	}
}

func (self *tele) qpushTelemetry(tm tele_api.Telemetry) error {
	tm = self.telemetry(tm)
	return self.qpushTagJSON(qTelemetry, tm)
}

func (self *tele) qpushTagJSON(tag byte, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Annotate(err, "tele marshal")
	}
	buf := make([]byte, 0, 1+len(b))
	buf = append(buf, tag)
	buf = append(buf, b...)
	return self.q.Push(buf)
}

func (self *tele) qsendTelemetry(tm *tele_api.Telemetry, payload []byte) bool {
	switch {
	case tm.Error != "":
		return self.transport.SendError(payload)
	case tm.Activity != nil:
		return self.transport.SendActivity(payload)
	default:
		return self.transport.SendState(payload)
	}
}

func (self *tele) telemetry(tm tele_api.Telemetry) tele_api.Telemetry {
	tm.ClientID = self.config.ClientID
	if tm.Time == 0 {
		tm.Time = self.now().UnixNano()
	}
	if tm.State == tele_api.StateInvalid {
		self.Lock()
		tm.State = self.currentState
		self.Unlock()
	}
	return tm
}
