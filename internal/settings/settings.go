// Package settings is byte addressed store of small numbers, layout
// compatible with microcontroller EEPROM images. Byte at base address
// is 0xff until value is written, payload follows little endian.
package settings

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/panel/log2"
)

const (
	DefaultSize = 256
	Unwritten   = 0xff

	FootprintByte = 2
	FootprintInt  = 3
	FootprintLong = 5
)

const persistTag = "settings"

type Config struct {
	Size int `hcl:"size"`
}

type Store struct {
	mu      sync.Mutex
	image   []byte
	persist Persist
}

var _ Stater = new(Store) // compile-time interface test

// New returns in-memory store, all bytes unwritten.
func New(size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	self := &Store{image: make([]byte, size)}
	for i := range self.image {
		self.image[i] = Unwritten
	}
	_ = self.persist.Init(persistTag, self, "", nil)
	return self
}

// Open loads store from persist root, empty root keeps it in memory.
func Open(root string, size int, log *log2.Log) (*Store, error) {
	self := New(size)
	if err := self.persist.Init(persistTag, self, root, log); err != nil {
		return nil, errors.Annotate(err, "settings")
	}
	if err := self.persist.Load(); err != nil {
		return nil, errors.Annotate(err, "settings")
	}
	return self, nil
}

func (self *Store) Size() int { return len(self.image) }

func (self *Store) GetByte(addr int, def byte) byte {
	b, ok := self.read(addr, 1)
	if !ok {
		return def
	}
	return b[0]
}

func (self *Store) GetInt(addr int, def int16) int16 {
	b, ok := self.read(addr, 2)
	if !ok {
		return def
	}
	return int16(binary.LittleEndian.Uint16(b))
}

func (self *Store) GetLong(addr int, def int32) int32 {
	b, ok := self.read(addr, 4)
	if !ok {
		return def
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// GetFloat decodes float32 bits stored as long.
func (self *Store) GetFloat(addr int, def float64) float64 {
	b, ok := self.read(addr, 4)
	if !ok {
		return def
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func (self *Store) PutByte(addr int, v byte) error {
	return self.write(addr, []byte{v})
}

func (self *Store) PutInt(addr int, v int16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	return self.write(addr, b[:])
}

func (self *Store) PutLong(addr int, v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return self.write(addr, b[:])
}

func (self *Store) PutFloat(addr int, v float64) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
	return self.write(addr, b[:])
}

// Written reports whether value at addr was ever written.
func (self *Store) Written(addr int) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.check(addr, 0)
	return self.image[addr] != Unwritten
}

// Reset marks addr unwritten, reads return default again.
func (self *Store) Reset(addr int) error {
	self.mu.Lock()
	self.check(addr, 0)
	self.image[addr] = Unwritten
	self.mu.Unlock()
	return self.persist.Store()
}

// ResetAll marks whole image unwritten.
func (self *Store) ResetAll() error {
	self.mu.Lock()
	for i := range self.image {
		self.image[i] = Unwritten
	}
	self.mu.Unlock()
	return self.persist.Store()
}

func (self *Store) Dump() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return hex.Dump(self.image)
}

func (self *Store) MarshalBinary() ([]byte, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]byte(nil), self.image...), nil
}

// UnmarshalBinary keeps store size, extra bytes are ignored.
func (self *Store) UnmarshalBinary(b []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	n := copy(self.image, b)
	for i := n; i < len(self.image); i++ {
		self.image[i] = Unwritten
	}
	return nil
}

func (self *Store) read(addr int, n int) ([]byte, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.check(addr, n)
	if self.image[addr] == Unwritten {
		return nil, false
	}
	return append([]byte(nil), self.image[addr+1:addr+1+n]...), true
}

func (self *Store) write(addr int, payload []byte) error {
	self.mu.Lock()
	self.check(addr, len(payload))
	self.image[addr] = 0
	copy(self.image[addr+1:], payload)
	self.mu.Unlock()
	return errors.Annotatef(self.persist.Store(), "settings write addr=%d", addr)
}

// caller must hold mu
func (self *Store) check(addr int, n int) {
	if addr < 0 || addr+1+n > len(self.image) {
		panic(fmt.Sprintf("code error settings addr=%d len=%d size=%d", addr, n, len(self.image)))
	}
}
