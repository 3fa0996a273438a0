// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package busmux

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBus records every call into a shared trace and can be made to fail a
// specific transfer or flush.
type fakeBus struct {
	mu      sync.Mutex
	trace   []string
	txCount int
	failTx  int // fail the Nth Tx (1-based), 0=never
	failFl  bool
	closed  int
}

func (b *fakeBus) add(ev string) {
	b.mu.Lock()
	b.trace = append(b.trace, ev)
	b.mu.Unlock()
}

func (b *fakeBus) Tx(w, r []byte) error {
	b.mu.Lock()
	b.txCount++
	n := b.txCount
	b.trace = append(b.trace, fmt.Sprintf("tx:%x", w))
	b.mu.Unlock()
	if b.failTx != 0 && n == b.failTx {
		return errors.New("wire glitch")
	}
	if r != nil {
		for i := range r {
			r[i] = 0xA5
		}
	}
	return nil
}

func (b *fakeBus) Flush() error {
	b.add("flush")
	if b.failFl {
		return errors.New("flush failed")
	}
	return nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	b.closed++
	b.mu.Unlock()
	return nil
}

// fakePin records select line changes into the bus trace so that ordering
// relative to transfers can be checked.
type fakePin struct {
	bus  *fakeBus
	name string
	fail bool // fail every Out call
	lvl  bool
}

func (p *fakePin) Out(high bool) error {
	if p.fail {
		return errors.New("gpio busted")
	}
	p.lvl = high
	if high {
		p.bus.add(p.name + ":hi")
	} else {
		p.bus.add(p.name + ":lo")
	}
	return nil
}

func count(trace []string, ev string) int {
	n := 0
	for _, t := range trace {
		if t == ev {
			n++
		}
	}
	return n
}

func TestTransactionOrdering(t *testing.T) {
	bus := &fakeBus{}
	sb := NewShared(bus)
	dev, err := sb.NewDevice(&fakePin{bus: bus, name: "cs"})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	bus.mu.Lock()
	bus.trace = nil // drop the deassert from NewDevice
	bus.mu.Unlock()

	err = dev.Transaction(Op{W: []byte{0x01}}, Op{W: []byte{0x02}, R: make([]byte, 1)})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	want := []string{"cs:lo", "tx:01", "tx:02", "flush", "cs:hi"}
	if got := strings.Join(bus.trace, " "); got != strings.Join(want, " ") {
		t.Fatalf("trace %q, want %q", got, strings.Join(want, " "))
	}
}

// Transactions from different devices must never interleave on the wire: in
// the trace every cs assert is followed by that device's ops and deassert
// before any other device appears.
func TestTransactionAtomicity(t *testing.T) {
	bus := &fakeBus{}
	sb := NewShared(bus)
	d1, _ := sb.NewDevice(&fakePin{bus: bus, name: "a"})
	d2, _ := sb.NewDevice(&fakePin{bus: bus, name: "b"})
	bus.mu.Lock()
	bus.trace = nil
	bus.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d1.Transaction(Op{W: []byte{0x11}}, Op{W: []byte{0x12}})
		}()
		go func() {
			defer wg.Done()
			d2.Transaction(Op{W: []byte{0x21}}, Op{W: []byte{0x22}})
		}()
	}
	wg.Wait()

	cur := ""
	for _, ev := range bus.trace {
		switch {
		case strings.HasSuffix(ev, ":lo"):
			if cur != "" {
				t.Fatalf("select %q asserted while %q transaction open", ev, cur)
			}
			cur = strings.TrimSuffix(ev, ":lo")
		case strings.HasSuffix(ev, ":hi"):
			if cur != strings.TrimSuffix(ev, ":hi") {
				t.Fatalf("deassert %q inside %q transaction", ev, cur)
			}
			cur = ""
		case strings.HasPrefix(ev, "tx:1"):
			if cur != "a" {
				t.Fatalf("device a transfer inside %q transaction", cur)
			}
		case strings.HasPrefix(ev, "tx:2"):
			if cur != "b" {
				t.Fatalf("device b transfer inside %q transaction", cur)
			}
		}
	}
}

// A failing operation skips the rest of the transaction but still flushes the
// bus once and deasserts the select line.
func TestCleanupOnOpError(t *testing.T) {
	bus := &fakeBus{failTx: 2}
	sb := NewShared(bus)
	dev, _ := sb.NewDevice(&fakePin{bus: bus, name: "cs"})
	bus.mu.Lock()
	bus.trace = nil
	bus.mu.Unlock()

	err := dev.Transaction(Op{W: []byte{0x01}}, Op{W: []byte{0x02}}, Op{W: []byte{0x03}})
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BusError", err)
	}
	if n := count(bus.trace, "tx:03"); n != 0 {
		t.Fatalf("op after failure still executed: %v", bus.trace)
	}
	if n := count(bus.trace, "flush"); n != 1 {
		t.Fatalf("flush count %d, want 1 (%v)", n, bus.trace)
	}
	if n := count(bus.trace, "cs:hi"); n != 1 {
		t.Fatalf("deassert count %d, want 1 (%v)", n, bus.trace)
	}
}

func TestSelectErrorOnAssert(t *testing.T) {
	bus := &fakeBus{}
	sb := NewShared(bus)
	pin := &fakePin{bus: bus, name: "cs"}
	dev, err := sb.NewDevice(pin)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	pin.fail = true
	err = dev.Transaction(Op{W: []byte{0x01}})
	var se *SelectError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *SelectError", err)
	}
	if bus.txCount != 0 {
		t.Fatalf("transfer ran despite select failure")
	}
}

func TestFlushErrorIsBusError(t *testing.T) {
	bus := &fakeBus{failFl: true}
	sb := NewShared(bus)
	dev, _ := sb.NewDevice(&fakePin{bus: bus, name: "cs"})
	err := dev.Transaction(Op{W: []byte{0x01}})
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BusError", err)
	}
}

// An operation error takes precedence over the cleanup flush error.
func TestOpErrorBeatsFlushError(t *testing.T) {
	bus := &fakeBus{failTx: 1, failFl: true}
	sb := NewShared(bus)
	dev, _ := sb.NewDevice(&fakePin{bus: bus, name: "cs"})
	err := dev.Transaction(Op{W: []byte{0x01}})
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BusError", err)
	}
	if !strings.Contains(err.Error(), "wire glitch") {
		t.Fatalf("got %v, want the operation error", err)
	}
}

// A Delay op flushes the bus so the pause starts once prior bytes are on the
// wire, and uses the injected sleeper.
func TestDelayOp(t *testing.T) {
	bus := &fakeBus{}
	sb := NewShared(bus)
	var slept time.Duration
	sb.sleep = func(d time.Duration) { slept += d }
	dev, _ := sb.NewDevice(&fakePin{bus: bus, name: "cs"})
	bus.mu.Lock()
	bus.trace = nil
	bus.mu.Unlock()

	err := dev.Transaction(Op{W: []byte{0x01}}, Op{Delay: 3 * time.Millisecond}, Op{W: []byte{0x02}})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if slept != 3*time.Millisecond {
		t.Fatalf("slept %v, want 3ms", slept)
	}
	want := "cs:lo tx:01 flush tx:02 flush cs:hi"
	if got := strings.Join(bus.trace, " "); got != want {
		t.Fatalf("trace %q, want %q", got, want)
	}
}

func TestRefcountedClose(t *testing.T) {
	bus := &fakeBus{}
	sb := NewShared(bus)
	d1, _ := sb.NewDevice(&fakePin{bus: bus, name: "a"})
	d2, _ := sb.NewDevice(&fakePin{bus: bus, name: "b"})

	if err := d1.Close(); err != nil {
		t.Fatalf("Close d1: %v", err)
	}
	if bus.closed != 0 {
		t.Fatalf("bus closed with a device still open")
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("double Close: %v", err)
	}
	if err := d1.Transaction(Op{W: []byte{0x01}}); err == nil {
		t.Fatalf("Transaction on closed device succeeded")
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("Close d2: %v", err)
	}
	if bus.closed != 1 {
		t.Fatalf("bus closed %d times, want 1", bus.closed)
	}
}

type fakeI2C struct {
	calls  []string
	failAt int
	closed int
}

func (b *fakeI2C) Tx(addr uint16, w, r []byte) error {
	b.calls = append(b.calls, fmt.Sprintf("%#x:%x", addr, w))
	if b.failAt != 0 && len(b.calls) == b.failAt {
		return errors.New("nack")
	}
	return nil
}

func (b *fakeI2C) Close() error { b.closed++; return nil }

func TestI2CTransaction(t *testing.T) {
	bus := &fakeI2C{}
	sb := NewSharedI2C(bus)
	dev := sb.NewDevice(0x42)
	err := dev.Transaction(Op{W: []byte{0x01}}, Op{W: []byte{0x02}})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if len(bus.calls) != 2 || bus.calls[0] != "0x42:01" {
		t.Fatalf("calls %v", bus.calls)
	}
}

func TestI2CStopsOnError(t *testing.T) {
	bus := &fakeI2C{failAt: 1}
	sb := NewSharedI2C(bus)
	dev := sb.NewDevice(0x42)
	err := dev.Transaction(Op{W: []byte{0x01}}, Op{W: []byte{0x02}})
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BusError", err)
	}
	if len(bus.calls) != 1 {
		t.Fatalf("ops after failure still executed: %v", bus.calls)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if bus.closed != 1 {
		t.Fatalf("bus closed %d times, want 1", bus.closed)
	}
}
