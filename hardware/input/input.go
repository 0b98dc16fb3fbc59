// Package input provides button samplers for physical and virtual keys.
package input

import (
	"sync"
	"time"

	"github.com/temoto/panel/internal/types"
)

// Any returns sampler which reports first non-none sample.
func Any(samplers ...types.Sampler) types.Sampler {
	ss := make([]types.Sampler, 0, len(samplers))
	for _, s := range samplers {
		if s != nil {
			ss = append(ss, s)
		}
	}
	if len(ss) == 1 {
		return ss[0]
	}
	return types.SamplerFunc(func() types.ButtonID {
		for _, s := range ss {
			if b := s.Sample(); b != types.ButtonNone {
				return b
			}
		}
		return types.ButtonNone
	})
}

// Latch is sampler for event sources without continuous level, such as
// key events from terminal, input device or remote command.
// Pressed button is reported until Release or hold deadline.
type Latch struct {
	mu       sync.Mutex
	clock    types.Clock
	button   types.ButtonID
	deadline time.Duration
}

// compile-time interface compliance test
var _ types.Sampler = new(Latch)

func NewLatch(clock types.Clock) *Latch {
	if clock == nil {
		panic("code error input.NewLatch clock=nil")
	}
	return &Latch{clock: clock}
}

// Press holds button until Release when hold=0, otherwise for hold duration.
func (self *Latch) Press(b types.ButtonID, hold time.Duration) {
	self.mu.Lock()
	self.button = b
	self.deadline = 0
	if hold > 0 {
		self.deadline = self.clock.Now() + hold
	}
	self.mu.Unlock()
}

// Release clears b. Release of other button is ignored.
func (self *Latch) Release(b types.ButtonID) {
	self.mu.Lock()
	if self.button == b {
		self.button = types.ButtonNone
		self.deadline = 0
	}
	self.mu.Unlock()
}

func (self *Latch) Sample() types.ButtonID {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.button != types.ButtonNone && self.deadline != 0 && self.clock.Now() >= self.deadline {
		self.button = types.ButtonNone
		self.deadline = 0
	}
	return self.button
}
