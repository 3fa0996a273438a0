// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import (
	"fmt"
	"strings"
)

// IrqMask selects which chip events latch into the interrupt status register
// and which route to a DIO pin. Build masks by OR-ing the Irq* flags, or use
// the With helper for readability.
type IrqMask uint16

const (
	IrqNone             IrqMask = 0x0000
	IrqTxDone           IrqMask = 1 << 0
	IrqRxDone           IrqMask = 1 << 1
	IrqPreambleDetected IrqMask = 1 << 2
	IrqSyncwordValid    IrqMask = 1 << 3
	IrqHeaderValid      IrqMask = 1 << 4
	IrqHeaderError      IrqMask = 1 << 5
	IrqCrcError         IrqMask = 1 << 6
	IrqCadDone          IrqMask = 1 << 7
	IrqCadDetected      IrqMask = 1 << 8
	IrqTimeout          IrqMask = 1 << 9
	IrqAll              IrqMask = 0xFFFF
)

// With returns the mask with the given flags added.
func (m IrqMask) With(bits ...IrqMask) IrqMask {
	for _, b := range bits {
		m |= b
	}
	return m
}

// IrqStatus is a snapshot of the interrupt status register.
type IrqStatus uint16

func (s IrqStatus) TxDone() bool           { return s&IrqStatus(IrqTxDone) != 0 }
func (s IrqStatus) RxDone() bool           { return s&IrqStatus(IrqRxDone) != 0 }
func (s IrqStatus) PreambleDetected() bool { return s&IrqStatus(IrqPreambleDetected) != 0 }
func (s IrqStatus) SyncwordValid() bool    { return s&IrqStatus(IrqSyncwordValid) != 0 }
func (s IrqStatus) HeaderValid() bool      { return s&IrqStatus(IrqHeaderValid) != 0 }
func (s IrqStatus) HeaderError() bool      { return s&IrqStatus(IrqHeaderError) != 0 }
func (s IrqStatus) CrcError() bool         { return s&IrqStatus(IrqCrcError) != 0 }
func (s IrqStatus) CadDone() bool          { return s&IrqStatus(IrqCadDone) != 0 }
func (s IrqStatus) CadDetected() bool      { return s&IrqStatus(IrqCadDetected) != 0 }
func (s IrqStatus) Timeout() bool          { return s&IrqStatus(IrqTimeout) != 0 }

var irqNames = []struct {
	bit  IrqStatus
	name string
}{
	{IrqStatus(IrqTxDone), "txDone"},
	{IrqStatus(IrqRxDone), "rxDone"},
	{IrqStatus(IrqPreambleDetected), "preamble"},
	{IrqStatus(IrqSyncwordValid), "syncword"},
	{IrqStatus(IrqHeaderValid), "hdrValid"},
	{IrqStatus(IrqHeaderError), "hdrErr"},
	{IrqStatus(IrqCrcError), "crcErr"},
	{IrqStatus(IrqCadDone), "cadDone"},
	{IrqStatus(IrqCadDetected), "cadDetect"},
	{IrqStatus(IrqTimeout), "timeout"},
}

func (s IrqStatus) String() string {
	var set []string
	for _, f := range irqNames {
		if s&f.bit != 0 {
			set = append(set, f.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, "+")
}

// DeviceErrors is a snapshot of the chip's calibration/oscillator/PLL/PA
// fault register.
type DeviceErrors uint16

func (e DeviceErrors) Rc64kCalib() bool { return e&(1<<0) != 0 }
func (e DeviceErrors) Rc13mCalib() bool { return e&(1<<1) != 0 }
func (e DeviceErrors) PllCalib() bool   { return e&(1<<2) != 0 }
func (e DeviceErrors) AdcCalib() bool   { return e&(1<<3) != 0 }
func (e DeviceErrors) ImgCalib() bool   { return e&(1<<4) != 0 }
func (e DeviceErrors) XoscStart() bool  { return e&(1<<5) != 0 }
func (e DeviceErrors) PllLock() bool    { return e&(1<<6) != 0 }
func (e DeviceErrors) PaRamp() bool     { return e&(1<<8) != 0 }

// Any reports whether any fault bit is set.
func (e DeviceErrors) Any() bool { return e != 0 }

func (e DeviceErrors) String() string {
	if e == 0 {
		return "none"
	}
	return fmt.Sprintf("%#04x", uint16(e))
}
