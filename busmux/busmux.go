// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package busmux shares one physical SPI bus among multiple devices, each device
// owning its own chip select line.
//
// The purpose of busmux is to let several independent peripheral drivers (radio,
// display, sensors, ...) sit on the same SPI wires without stepping on each
// other. Each driver gets a Device handle; a Device groups an ordered list of
// read/write/transfer/delay operations into one Transaction that is atomic with
// respect to every other device on the bus: the select line is asserted for
// exactly the duration of the transaction and the bus lock is held throughout.
//
// The bus itself is reference counted. The SharedBus handle is jointly owned by
// all Device wrappers created from it and the underlying bus is closed when the
// last Device is closed.
//
// Access is arbitrated with a writer-preferring readers-writer lock. Every
// transaction mutates on-wire chip select state and therefore takes the write
// lock; the reader side exists so that passive observers (diagnostics that only
// look at driver state) can be added without starving pending transactions.
// There is no fairness guarantee between devices beyond the writer preference.
//
// Failure modes are kept apart: errors from the bus transport are reported as
// *BusError, errors from driving a GPIO line as *SelectError. Cleanup (flushing
// the bus and deasserting the select line) runs on every exit path, even when an
// operation in the middle of a transaction failed; the first operation error is
// what the caller gets back.
package busmux

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Bus is the raw shared bus underneath all devices. An implementation must be
// safe to call from the goroutine currently holding the bus lock; it does not
// need to be concurrency safe itself.
type Bus interface {
	// Tx performs a transfer. w or r may be nil for a half-duplex write or
	// read; when both are given they must be the same length.
	Tx(w, r []byte) error
	// Flush blocks until all queued bytes have been clocked onto the wire.
	Flush() error
}

// SelectPin drives a device-owned GPIO line, typically the chip select. Select
// lines are active low: Out(false) asserts, Out(true) deasserts.
type SelectPin interface {
	Out(high bool) error
}

// Op is one step of a bus transaction, in the manner of spi.Packet: fill in W
// for a write, R for a read, both for a full-duplex transfer, or Delay to pause
// mid-transaction (the bus is flushed before the pause so the delay starts once
// the previous bytes are on the wire).
type Op struct {
	W, R  []byte
	Delay time.Duration
}

// SharedBus is the reference-counted handle onto one physical bus. It is
// created once and outlives all the Device wrappers handed out from it.
type SharedBus struct {
	mu    sync.RWMutex // writer-preferring, serializes transactions
	bus   Bus
	refs  int
	sleep func(time.Duration)
}

// NewShared wraps a raw bus for sharing. If the bus also implements io.Closer
// it is closed when the last device created from this handle is closed.
func NewShared(bus Bus) *SharedBus {
	return &SharedBus{bus: bus, sleep: time.Sleep}
}

// Device is one logical device on a shared bus. A Device must not be shared
// between drivers: it owns the select line and allows a single in-flight
// transaction at a time.
type Device struct {
	sb     *SharedBus
	cs     SelectPin
	closed bool
}

// NewDevice returns a handle for the device behind the given select line. The
// line is deasserted immediately so a floating pin cannot ghost-select the
// device while others use the bus.
func (sb *SharedBus) NewDevice(cs SelectPin) (*Device, error) {
	if err := cs.Out(true); err != nil {
		return nil, &SelectError{err}
	}
	sb.mu.Lock()
	sb.refs++
	sb.mu.Unlock()
	return &Device{sb: sb, cs: cs}, nil
}

// Transaction acquires exclusive access to the bus, asserts this device's
// select line, executes the operations in order, flushes the bus, and
// deasserts the select line. The flush and deassert happen unconditionally,
// also when an operation fails; in that case the remaining operations are
// skipped and the first operation error is returned once cleanup is done.
func (d *Device) Transaction(ops ...Op) error {
	d.sb.mu.Lock()
	defer d.sb.mu.Unlock()
	if d.closed {
		return fmt.Errorf("busmux: device is closed")
	}

	if err := d.cs.Out(false); err != nil {
		return &SelectError{err}
	}

	var opErr error
	for i := range ops {
		if opErr = d.sb.run(&ops[i]); opErr != nil {
			break
		}
	}

	flushErr := d.sb.bus.Flush()
	csErr := d.cs.Out(true)

	switch {
	case opErr != nil:
		return &BusError{opErr}
	case flushErr != nil:
		return &BusError{flushErr}
	case csErr != nil:
		return &SelectError{csErr}
	}
	return nil
}

func (sb *SharedBus) run(op *Op) error {
	if op.Delay > 0 {
		if err := sb.bus.Flush(); err != nil {
			return err
		}
		sb.sleep(op.Delay)
		return nil
	}
	if op.W == nil && op.R == nil {
		return nil
	}
	return sb.bus.Tx(op.W, op.R)
}

// Close releases this device's share of the bus. The underlying bus is closed
// when the last device goes away. Closing twice is a no-op.
func (d *Device) Close() error {
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
