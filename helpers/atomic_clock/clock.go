// Package atomic_clock is convenient API around atomic int64 monotonic clock.
// Values are durations since process start, not wall time.
// Use for timeouts and debounce accounting. Do not use where time zone matters.
package atomic_clock

import (
	"sync/atomic"
	"time"
)

var epoch = time.Now()

type Clock struct{ v int64 }

func source() int64 { return int64(time.Since(epoch)) }

func (c *Clock) get() int64         { return atomic.LoadInt64(&c.v) }
func (c *Clock) set(new int64)      { atomic.StoreInt64(&c.v, new) }
func (c *Clock) cas(old, new int64) { atomic.CompareAndSwapInt64(&c.v, old, new) }

func (c *Clock) IsZero() bool { return c.get() == 0 }

func (c *Clock) Set(d time.Duration)       { c.set(int64(d)) }
func (c *Clock) SetIfZero(d time.Duration) { c.cas(0, int64(d)) }
func (c *Clock) SetNow()                   { c.set(source()) }
func (c *Clock) SetNowIfZero()             { c.cas(0, source()) }

// Add moves manual clock forward. Tests drive debounce timers with it.
func (c *Clock) Add(d time.Duration) time.Duration {
	return time.Duration(atomic.AddInt64(&c.v, int64(d)))
}

// Now returns stored value, so *Clock is a manually driven types.Clock.
func (c *Clock) Now() time.Duration { return time.Duration(c.get()) }

func (c *Clock) Sub(begin *Clock) time.Duration { return time.Duration(c.get() - begin.get()) }

func New(d time.Duration) *Clock { return &Clock{v: int64(d)} }
func Now() *Clock                { return New(time.Duration(source())) }

func Since(begin *Clock) time.Duration { return time.Duration(source() - begin.get()) }
func Source() time.Duration            { return time.Duration(source()) }

// Monotonic reads process clock on every call.
type Monotonic struct{}

func (Monotonic) Now() time.Duration { return Source() }
