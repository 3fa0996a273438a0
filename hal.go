// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import (
	"time"

	"periph.io/x/periph/conn/gpio"

	"github.com/tve/sx126x/busmux"
)

// SPI is the transport the driver needs: grouped operations executed as one
// atomic bus transaction with the chip selected throughout. A busmux.Device
// satisfies this directly.
type SPI interface {
	Transaction(ops ...busmux.Op) error
}

// OutPin is a level-driven output line, used for reset and the antenna switch.
type OutPin interface {
	Out(high bool) error
}

// InPin is a level-readable input line with edge-wait capability, used for the
// busy and DIO1 lines. WaitForEdge returns false if no edge arrived within the
// timeout; callers re-check the level because edges can be missed.
type InPin interface {
	Read() bool
	WaitForEdge(timeout time.Duration) bool
}

// Pin adapts a periph GPIO pin to the InPin and OutPin interfaces. The pin
// must already be configured for the intended direction (and edge detection
// for inputs).
type Pin struct {
	gpio.PinIO
}

func (p Pin) Out(high bool) error { return p.PinIO.Out(gpio.Level(high)) }

func (p Pin) Read() bool { return bool(p.PinIO.Read()) }

func (p Pin) WaitForEdge(timeout time.Duration) bool { return p.PinIO.WaitForEdge(timeout) }
