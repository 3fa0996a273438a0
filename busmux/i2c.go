// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package busmux

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// AddrBus is a raw shared bus that addresses devices in-band, i.e. I2C. The
// signature matches periph's i2c.Bus so a periph bus can be passed directly.
type AddrBus interface {
	Tx(addr uint16, w, r []byte) error
}

// SharedI2C is the reference-counted handle onto one I2C bus. Devices are told
// apart by their bus address, there is no select line to drive.
type SharedI2C struct {
	mu    sync.RWMutex
	bus   AddrBus
	refs  int
	sleep func(time.Duration)
}

// NewSharedI2C wraps a raw addressed bus for sharing. If the bus also
// implements io.Closer it is closed when the last device is closed.
func NewSharedI2C(bus AddrBus) *SharedI2C {
	return &SharedI2C{bus: bus, sleep: time.Sleep}
}

// I2CDevice is one device on a shared I2C bus, bound to a fixed address.
type I2CDevice struct {
	sb     *SharedI2C
	addr   uint16
	closed bool
}

// NewDevice returns a handle for the device at the given address.
func (sb *SharedI2C) NewDevice(addr uint16) *I2CDevice {
	sb.mu.Lock()
	sb.refs++
	sb.mu.Unlock()
	return &I2CDevice{sb: sb, addr: addr}
}

// Transaction executes the operations in order while holding the bus lock, so
// no other device's transfer can interleave. Each non-delay operation is one
// addressed transfer. The remaining operations are skipped after the first
// failure and that error is returned as a *BusError. There is no select line
// and I2C transfers are synchronous, so there is no cleanup step.
func (d *I2CDevice) Transaction(ops ...Op) error {
	d.sb.mu.Lock()
	defer d.sb.mu.Unlock()
	if d.closed {
		return fmt.Errorf("busmux: device is closed")
	}
	for i := range ops {
		op := &ops[i]
		if op.Delay > 0 {
			d.sb.sleep(op.Delay)
			continue
		}
		if op.W == nil && op.R == nil {
			continue
		}
		if err := d.sb.bus.Tx(d.addr, op.W, op.R); err != nil {
			return &BusError{err}
		}
	}
	return nil
}

// Close releases this device's share of the bus, closing the underlying bus
// when the last device goes away. Closing twice is a no-op.
func (d *I2CDevice) Close() error {
	d.sb.mu.Lock()
	defer d.sb.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.sb.refs--
	if d.sb.refs == 0 {
		if c, ok := d.sb.bus.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}
