// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import (
	"time"

	"github.com/tve/sx126x/busmux"
)

// busyPollDelay is slept before sampling the busy line: the chip needs a
// moment to raise busy after the previous command's select deassert.
const busyPollDelay = 50 * time.Microsecond

// busyEdgeWait bounds a single WaitForEdge call in the busy loop; the level is
// re-checked after each wait so a missed edge only costs one period.
const busyEdgeWait = 100 * time.Millisecond

// resetHold is how long the reset line is held low.
const resetHold = 200 * time.Microsecond

// Radio represents a Semtech SX1261/62 LoRa modem on a shared SPI bus.
//
// The chip's operating mode lives on the chip, the driver never caches it:
// anything that needs the mode queries GetStatus. All methods wait for the
// chip's busy line to drop before issuing their command, so a wedged chip
// stalls the caller indefinitely; Reset is the recovery path.
//
// Methods are not concurrency safe; one goroutine owns a Radio. The shared
// bus underneath is safe to use from other devices' goroutines concurrently.
type Radio struct {
	dev  SPI    // transaction transport to the chip
	rst  OutPin // reset line, active low
	busy InPin  // high while the chip is processing
	dio1 InPin  // interrupt line, high on TX/RX completion
	ant  OutPin // optional antenna switch / RF enable

	sleep func(time.Duration)
	log   LogPrintf
}

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// RadioOpts contains options used when initializing a Radio.
type RadioOpts struct {
	Ant    OutPin    // antenna switch output, may be nil
	Logger LogPrintf // function to use for logging, nil for none
}

// New creates a Radio for a chip reachable through the given transport and
// control pins. It performs no bus traffic; call Init to bring the chip up.
func New(dev SPI, rst OutPin, busy, dio1 InPin, opts RadioOpts) *Radio {
	r := &Radio{dev: dev, rst: rst, busy: busy, dio1: dio1, ant: opts.Ant,
		sleep: time.Sleep}
	if opts.Logger != nil {
		r.log = opts.Logger
	} else {
		r.log = func(format string, v ...interface{}) {}
	}
	return r
}

// SetLogger sets a logging function, nil may be used to disable logging.
func (r *Radio) SetLogger(l LogPrintf) {
	if l != nil {
		r.log = l
	} else {
		r.log = func(format string, v ...interface{}) {}
	}
}

// waitBusy blocks until the chip lowers its busy line. There is no timeout: a
// chip that never lowers busy stalls the caller, and only Reset gets it back.
func (r *Radio) waitBusy() {
	r.sleep(busyPollDelay)
	for r.busy.Read() {
		r.busy.WaitForEdge(busyEdgeWait)
	}
}

// Reset pulls the hardware reset line low for a couple hundred microseconds.
// It deliberately does not wait for busy first: reset is the recovery path
// from a chip that is stuck with busy high.
func (r *Radio) Reset() error {
	if err := r.rst.Out(false); err != nil {
		return err
	}
	r.sleep(resetHold)
	return r.rst.Out(true)
}

// SetAntEnabled drives the antenna switch, if one was configured.
func (r *Radio) SetAntEnabled(enabled bool) error {
	if r.ant == nil {
		return nil
	}
	return r.ant.Out(enabled)
}

// SetStandby puts the chip in the requested standby mode.
func (r *Radio) SetStandby(cfg StandbyConfig) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_STANDBY, byte(cfg)}})
}

// SetFs puts the chip in frequency synthesis mode.
func (r *Radio) SetFs() error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_FS}})
}

// SetTx starts a transmission and returns the status byte the chip clocks out
// while swallowing the command.
func (r *Radio) SetTx(timeout Timeout) (Status, error) {
	r.waitBusy()
	t := timeout.bytes()
	w := []byte{CMD_SET_TX, t[0], t[1], t[2]}
	rd := make([]byte, 4)
	if err := r.dev.Transaction(busmux.Op{W: w, R: rd}); err != nil {
		return 0, err
	}
	return Status(rd[0]), nil
}

// SetRx starts the receiver. ContinuousRx keeps it open with no timeout.
func (r *Radio) SetRx(timeout Timeout) (Status, error) {
	r.waitBusy()
	t := timeout.bytes()
	w := []byte{CMD_SET_RX, t[0], t[1], t[2]}
	rd := make([]byte, 4)
	if err := r.dev.Transaction(busmux.Op{W: w, R: rd}); err != nil {
		return 0, err
	}
	return Status(rd[0]), nil
}

// GetStatus returns the chip mode and last-command result.
func (r *Radio) GetStatus() (Status, error) {
	r.waitBusy()
	rd := make([]byte, 2)
	err := r.dev.Transaction(busmux.Op{W: []byte{CMD_GET_STATUS, NOP}, R: rd})
	if err != nil {
		return 0, err
	}
	return Status(rd[1]), nil
}

// GetStats returns the chip's packet counters.
func (r *Radio) GetStats() (Stats, error) {
	r.waitBusy()
	w := make([]byte, 8)
	w[0] = CMD_GET_STATS
	rd := make([]byte, 8)
	if err := r.dev.Transaction(busmux.Op{W: w, R: rd}); err != nil {
		return Stats{}, err
	}
	return decodeStats(rd[1:]), nil
}

// GetIrqStatus returns the latched interrupt flags.
func (r *Radio) GetIrqStatus() (IrqStatus, error) {
	r.waitBusy()
	rd := make([]byte, 3)
	err := r.dev.Transaction(
		busmux.Op{W: []byte{CMD_GET_IRQ_STATUS}},
		busmux.Op{R: rd},
	)
	if err != nil {
		return 0, err
	}
	return IrqStatus(uint16(rd[1])<<8 | uint16(rd[2])), nil
}

// ClearIrqStatus clears the interrupt flags selected by mask.
func (r *Radio) ClearIrqStatus(mask IrqMask) error {
	r.waitBusy()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_CLEAR_IRQ_STATUS, byte(mask >> 8), byte(mask)}})
}

// GetDeviceErrors returns the chip's fault register.
func (r *Radio) GetDeviceErrors() (DeviceErrors, error) {
	r.waitBusy()
	rd := make([]byte, 4)
	err := r.dev.Transaction(
		busmux.Op{W: []byte{CMD_GET_DEVICE_ERRORS, NOP, NOP, NOP}, R: rd})
	if err != nil {
		return 0, err
	}
	return DeviceErrors(uint16(rd[2])<<8 | uint16(rd[3])), nil
}

// ClearDeviceErrors clears the chip's fault register.
func (r *Radio) ClearDeviceErrors() error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_CLEAR_DEVICE_ERRORS, NOP, NOP}})
}

// GetRxBufferStatus returns length and offset of the last received packet.
func (r *Radio) GetRxBufferStatus() (RxBufferStatus, error) {
	r.waitBusy()
	rd := make([]byte, 4)
	err := r.dev.Transaction(
		busmux.Op{W: []byte{CMD_GET_RX_BUFFER_STATUS, NOP, NOP, NOP}, R: rd})
	if err != nil {
		return RxBufferStatus{}, err
	}
	return RxBufferStatus{PayloadLength: rd[2], BufferStart: rd[3]}, nil
}

// GetPacketStatus returns the signal measurements of the last received packet.
func (r *Radio) GetPacketStatus() (PacketStatus, error) {
	r.waitBusy()
	rd := make([]byte, 3)
	err := r.dev.Transaction(
		busmux.Op{W: []byte{CMD_GET_PACKET_STATUS, NOP}},
		busmux.Op{R: rd},
	)
	if err != nil {
		return PacketStatus{}, err
	}
	return decodePacketStatus(rd), nil
}

// SetPacketType selects the LoRa or GFSK modem. Only LoRa is supported by the
// rest of this driver.
func (r *Radio) SetPacketType(pt PacketType) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_PACKET_TYPE, byte(pt)}})
}

// GetPacketType returns the currently selected modem.
func (r *Radio) GetPacketType() (PacketType, error) {
	r.waitBusy()
	rd := make([]byte, 3)
	err := r.dev.Transaction(
		busmux.Op{W: []byte{CMD_GET_PACKET_TYPE, NOP, NOP}, R: rd})
	if err != nil {
		return 0, err
	}
	return PacketType(rd[2]), nil
}

// Calibrate runs the calibration blocks selected by the mask.
func (r *Radio) Calibrate(p CalibParam) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_CALIBRATE, byte(p)}})
}

// CalibrateImage calibrates the image rejection filter for a frequency band.
func (r *Radio) CalibrateImage(f CalibImageFreq) error {
	r.waitBusy()
	b := f.bytes()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_CALIBRATE_IMAGE, b[0], b[1]}})
}

// SetRfFrequency programs the RF frequency register value, see RfFreq.
func (r *Radio) SetRfFrequency(rfFreq uint32) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_RF_FREQUENCY,
		byte(rfFreq >> 24), byte(rfFreq >> 16), byte(rfFreq >> 8), byte(rfFreq)}})
}

// SetPaConfig configures the power amplifier.
func (r *Radio) SetPaConfig(p PaConfig) error {
	r.waitBusy()
	b := p.bytes()
	return r.dev.Transaction(busmux.Op{W: append([]byte{CMD_SET_PA_CONFIG}, b[:]...)})
}

// SetTxParams sets transmit power and PA ramp time.
func (r *Radio) SetTxParams(p TxParams) error {
	r.waitBusy()
	b := p.bytes()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_TX_PARAMS, b[0], b[1]}})
}

// SetModParams sets the LoRa modulation parameters.
func (r *Radio) SetModParams(p ModParams) error {
	r.waitBusy()
	b := p.bytes()
	return r.dev.Transaction(busmux.Op{W: append([]byte{CMD_SET_MOD_PARAMS}, b[:]...)})
}

// SetPacketParams sets the LoRa packet framing parameters.
func (r *Radio) SetPacketParams(p PacketParams) error {
	r.waitBusy()
	b := p.bytes()
	return r.dev.Transaction(busmux.Op{W: append([]byte{CMD_SET_PACKET_PARAMS}, b[:]...)})
}

// SetBufferBaseAddress sets the TX and RX base offsets in the chip's buffer.
func (r *Radio) SetBufferBaseAddress(txBase, rxBase byte) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_BUFFER_BASE, txBase, rxBase}})
}

// SetDioIrqParams sets the global IRQ enable mask and the per-DIO-pin routing
// masks.
func (r *Radio) SetDioIrqParams(irq, dio1, dio2, dio3 IrqMask) error {
	r.waitBusy()
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_DIO_IRQ_PARAMS,
		byte(irq >> 8), byte(irq),
		byte(dio1 >> 8), byte(dio1),
		byte(dio2 >> 8), byte(dio2),
		byte(dio3 >> 8), byte(dio3)}})
}

// SetDio2AsRfSwitchCtrl makes the chip drive DIO2 as an RF switch control.
func (r *Radio) SetDio2AsRfSwitchCtrl(enable bool) error {
	r.waitBusy()
	var en byte
	if enable {
		en = 1
	}
	return r.dev.Transaction(busmux.Op{W: []byte{CMD_SET_DIO2_RF_SWITCH, en}})
}

// SetDio3AsTcxoCtrl makes the chip power a TCXO from DIO3 at the given voltage
// and wait the given startup time before using the oscillator.
func (r *Radio) SetDio3AsTcxoCtrl(v TcxoVoltage, startup time.Duration) error {
	r.waitBusy()
	d := TimeoutMs(uint32(startup / time.Millisecond)).bytes()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_SET_DIO3_TCXO_CTRL, byte(v), d[0], d[1], d[2]}})
}

// WriteRegister writes data to consecutive registers starting at addr.
func (r *Radio) WriteRegister(addr uint16, data []byte) error {
	r.waitBusy()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_WRITE_REGISTER, byte(addr >> 8), byte(addr)}},
		busmux.Op{W: data},
	)
}

// ReadRegister reads len(buf) bytes from consecutive registers starting at
// addr.
func (r *Radio) ReadRegister(addr uint16, buf []byte) error {
	r.waitBusy()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_READ_REGISTER, byte(addr >> 8), byte(addr)}},
		busmux.Op{R: buf},
	)
}

// WriteBuffer writes data into the chip's packet buffer at the given offset.
func (r *Radio) WriteBuffer(offset byte, data []byte) error {
	r.waitBusy()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_WRITE_BUFFER, offset}},
		busmux.Op{W: data},
	)
}

// ReadBuffer reads len(buf) bytes from the chip's packet buffer at the given
// offset.
func (r *Radio) ReadBuffer(offset byte, buf []byte) error {
	r.waitBusy()
	return r.dev.Transaction(
		busmux.Op{W: []byte{CMD_READ_BUFFER, offset, NOP}},
		busmux.Op{R: buf},
	)
}

// SetSyncWord sets the LoRa sync word: 0x3444 for public networks (like TTN),
// 0x1424 for private ones.
func (r *Radio) SetSyncWord(syncWord uint16) error {
	return r.WriteRegister(REG_SYNCWORD_MSB, []byte{byte(syncWord >> 8), byte(syncWord)})
}

// SetOcp sets the over-current protection limit in mA; the register holds it
// in 2.5mA steps.
func (r *Radio) SetOcp(mA int) error {
	return r.WriteRegister(REG_OCP, []byte{byte(mA * 2 / 5)})
}

// FixSensitivity switches the receiver to boosted gain, working around the
// sensitivity loss errata. Send applies it before every transmission so a TX
// does not leave the chip deaf afterwards.
func (r *Radio) FixSensitivity() error {
	return r.WriteRegister(REG_RX_GAIN, []byte{RX_GAIN_BOOSTED})
}

// Init brings the chip from reset into a fully configured standby state using
// the fixed sequence the datasheet prescribes. Any failing step aborts
// immediately, nothing is rolled back: retry from a fresh Reset.
//
// The same mask is passed for the global IRQ enable and the DIO1 routing,
// DIO2/DIO3 get their own (typically empty) masks; on the target boards only
// DIO1 is wired as an interrupt.
func (r *Radio) Init(cfg *Config) error {
	if err := r.Reset(); err != nil {
		return err
	}
	r.log("sx126x: init reset done")
	if err := r.SetStandby(StandbyRC); err != nil {
		return err
	}
	if err := r.SetPacketType(cfg.PacketType); err != nil {
		return err
	}
	if err := r.SetRfFrequency(cfg.RfFreq); err != nil {
		return err
	}
	if cfg.Tcxo != nil {
		if err := r.SetDio3AsTcxoCtrl(cfg.Tcxo.Voltage, cfg.Tcxo.Startup); err != nil {
			return err
		}
		r.sleep(cfg.Tcxo.Startup)
	}
	if err := r.Calibrate(cfg.CalibParam); err != nil {
		return err
	}
	if err := r.CalibrateImage(CalibImageFor(cfg.Frequency)); err != nil {
		return err
	}
	r.log("sx126x: init calibrated")
	if err := r.SetPaConfig(cfg.PaConfig); err != nil {
		return err
	}
	if err := r.SetTxParams(cfg.TxParams); err != nil {
		return err
	}
	if err := r.SetBufferBaseAddress(0, 0); err != nil {
		return err
	}
	if err := r.SetModParams(cfg.ModParams); err != nil {
		return err
	}
	if cfg.PacketParams != nil {
		if err := r.SetPacketParams(*cfg.PacketParams); err != nil {
			return err
		}
	}
	if err := r.SetDioIrqParams(cfg.Dio1IrqMask, cfg.Dio1IrqMask,
		cfg.Dio2IrqMask, cfg.Dio3IrqMask); err != nil {
		return err
	}
	if err := r.SetDio2AsRfSwitchCtrl(true); err != nil {
		return err
	}
	if err := r.SetSyncWord(cfg.SyncWord); err != nil {
		return err
	}
	r.log("sx126x: init done")
	return nil
}
