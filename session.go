// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import (
	"errors"
	"time"
)

// ErrUnexpectedInterrupt is returned by Receive when DIO1 rose but the IRQ
// status shows neither rx-done nor timeout. The interrupt has been cleared
// when this is returned.
var ErrUnexpectedInterrupt = errors.New("sx126x: unexpected interrupt")

// ErrPayloadTooLarge is returned by Receive when the received packet does not
// fit the caller's buffer. The payload is left unread in the chip's buffer.
var ErrPayloadTooLarge = errors.New("sx126x: payload exceeds buffer")

// rxSettleDelay is slept after DIO1 rises before reading the IRQ status; read
// too early the chip occasionally reports a stale status.
const rxSettleDelay = time.Millisecond

// waitDio1 blocks until the DIO1 line is high. No timeout: bounding the wait
// is the caller's business (pick a chip-side timeout, or race externally).
func (r *Radio) waitDio1() {
	for !r.dio1.Read() {
		r.dio1.WaitForEdge(busyEdgeWait)
	}
}

// Send transmits data and blocks until the chip signals completion on DIO1.
// The packet is framed with a variable-length header, the given preamble
// length and CRC mode. The returned status is the one captured when TX mode
// was entered. The timeout is enforced chip-side; it fires the timeout IRQ,
// which also raises DIO1, so Send returns either way — inspect the IRQ mask
// routing if it does not.
//
// Any step failing short-circuits with that error; in that case latched
// interrupts may be left uncleared.
func (r *Radio) Send(data []byte, timeout Timeout, preambleLen uint16, crcType CrcType) (Status, error) {
	r.log("sx126x: send %d bytes", len(data))
	if err := r.ClearDeviceErrors(); err != nil {
		return 0, err
	}
	if err := r.ClearIrqStatus(IrqAll); err != nil {
		return 0, err
	}
	if err := r.WriteBuffer(0, data); err != nil {
		return 0, err
	}
	params := PacketParams{
		PreambleLength: preambleLen,
		HeaderType:     VarLenHeader,
		PayloadLength:  byte(len(data)),
		CrcType:        crcType,
		InvertIq:       IqStandard,
	}
	if err := r.SetPacketParams(params); err != nil {
		return 0, err
	}
	if err := r.FixSensitivity(); err != nil {
		return 0, err
	}
	// diagnostic only, a calibration fault here explains a dead TX later
	devErrs, err := r.GetDeviceErrors()
	if err != nil {
		return 0, err
	}
	if devErrs.Any() {
		r.log("sx126x: send device errors: %s", devErrs)
	}
	status, err := r.SetTx(timeout)
	if err != nil {
		return 0, err
	}
	r.log("sx126x: send waiting on DIO1, status %s", status)
	r.waitDio1()
	if err := r.ClearIrqStatus(IrqAll); err != nil {
		return 0, err
	}
	return status, nil
}

// Receive opens the receiver and blocks until a packet arrives or the
// chip-side timeout fires. It returns the number of payload bytes copied into
// buf; a timeout is a normal zero-byte result, not an error. Pass ContinuousRx
// to wait indefinitely.
func (r *Radio) Receive(buf []byte, timeout Timeout) (int, error) {
	if err := r.ClearIrqStatus(IrqAll); err != nil {
		return 0, err
	}
	if _, err := r.SetRx(timeout); err != nil {
		return 0, err
	}
	r.waitDio1()
	r.sleep(rxSettleDelay)
	irq, err := r.GetIrqStatus()
	if err != nil {
		return 0, err
	}
	r.log("sx126x: receive irq %s", irq)
	if irq.Timeout() {
		if err := r.ClearIrqStatus(IrqAll); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if !irq.RxDone() {
		if err := r.ClearIrqStatus(IrqAll); err != nil {
			return 0, err
		}
		return 0, ErrUnexpectedInterrupt
	}
	rx, err := r.GetRxBufferStatus()
	if err != nil {
		return 0, err
	}
	if int(rx.PayloadLength) > len(buf) {
		if err := r.ClearIrqStatus(IrqAll); err != nil {
			return 0, err
		}
		return 0, ErrPayloadTooLarge
	}
	if err := r.ReadBuffer(rx.BufferStart, buf[:rx.PayloadLength]); err != nil {
		return 0, err
	}
	if err := r.ClearIrqStatus(IrqAll); err != nil {
		return 0, err
	}
	return int(rx.PayloadLength), nil
}
