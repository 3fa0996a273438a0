// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package busmux

import (
	"io"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/spi"
)

// SPIConn adapts a periph SPI connection to the Bus interface. Periph transfers
// are synchronous so Flush is a no-op. If a closer is given (typically the
// spi.PortCloser the connection was made from) it is closed when the shared bus
// refcount drops to zero.
type SPIConn struct {
	Conn   spi.Conn
	Closer io.Closer
}

func (c *SPIConn) Tx(w, r []byte) error { return c.Conn.Tx(w, r) }

func (c *SPIConn) Flush() error { return nil }

func (c *SPIConn) Close() error {
	if c.Closer == nil {
		return nil
	}
	return c.Closer.Close()
}

// GPIOSelect adapts a periph output pin to the SelectPin interface.
type GPIOSelect struct {
	Pin gpio.PinOut
}

func (s *GPIOSelect) Out(high bool) error { return s.Pin.Out(gpio.Level(high)) }
