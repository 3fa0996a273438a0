// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import "fmt"

// ChipMode is the chip's operating mode as reported in a status byte.
type ChipMode byte

const (
	ModeUnknown   ChipMode = 0
	ModeStandbyRC ChipMode = 0x2 // standby, 13MHz RC oscillator
	ModeStandbyXO ChipMode = 0x3 // standby, crystal oscillator
	ModeFS        ChipMode = 0x4 // frequency synthesis
	ModeRx        ChipMode = 0x5
	ModeTx        ChipMode = 0x6
)

func (m ChipMode) String() string {
	switch m {
	case ModeStandbyRC:
		return "STDBY_RC"
	case ModeStandbyXO:
		return "STDBY_XOSC"
	case ModeFS:
		return "FS"
	case ModeRx:
		return "RX"
	case ModeTx:
		return "TX"
	}
	return "unknown"
}

// CommandStatus is the outcome of the last command as reported in a status
// byte. The chip has no acknowledgment protocol, this is all it tells.
type CommandStatus byte

const (
	CmdUnknown         CommandStatus = 0
	CmdDataAvailable   CommandStatus = 0x2
	CmdTimeout         CommandStatus = 0x3
	CmdProcessingError CommandStatus = 0x4
	CmdExecFailure     CommandStatus = 0x5
	CmdTxDone          CommandStatus = 0x6
)

func (c CommandStatus) String() string {
	switch c {
	case CmdDataAvailable:
		return "data available"
	case CmdTimeout:
		return "command timeout"
	case CmdProcessingError:
		return "processing error"
	case CmdExecFailure:
		return "failed to execute"
	case CmdTxDone:
		return "TX done"
	}
	return "unknown"
}

// Status is the raw status byte the chip prefixes to most responses. Unmapped
// bit patterns decode to the explicit unknown values, they are never an error.
type Status byte

// Mode returns the chip mode bits, ModeUnknown for reserved patterns.
func (s Status) Mode() ChipMode {
	switch m := ChipMode((s >> 4) & 0x7); m {
	case ModeStandbyRC, ModeStandbyXO, ModeFS, ModeRx, ModeTx:
		return m
	}
	return ModeUnknown
}

// CmdStatus returns the last-command status bits, CmdUnknown for reserved
// patterns.
func (s Status) CmdStatus() CommandStatus {
	switch c := CommandStatus((s >> 1) & 0x7); c {
	case CmdDataAvailable, CmdTimeout, CmdProcessingError, CmdExecFailure, CmdTxDone:
		return c
	}
	return CmdUnknown
}

func (s Status) String() string {
	return fmt.Sprintf("mode=%s cmd=%s", s.Mode(), s.CmdStatus())
}

// Stats holds the chip's packet counters.
type Stats struct {
	Status       Status
	RxPackets    uint16
	CrcErrors    uint16
	HeaderErrors uint16
}

// decodeStats decodes the 7 response bytes of the get-stats command.
func decodeStats(b []byte) Stats {
	return Stats{
		Status:       Status(b[0]),
		RxPackets:    uint16(b[1])<<8 | uint16(b[2]),
		CrcErrors:    uint16(b[3])<<8 | uint16(b[4]),
		HeaderErrors: uint16(b[5])<<8 | uint16(b[6]),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("rx=%d crcErr=%d hdrErr=%d", s.RxPackets, s.CrcErrors, s.HeaderErrors)
}

// PacketStatus holds the raw signal measurements of the last received packet.
type PacketStatus struct {
	rssi       byte
	snr        int8
	signalRssi byte
}

func decodePacketStatus(b []byte) PacketStatus {
	return PacketStatus{rssi: b[0], snr: int8(b[1]), signalRssi: b[2]}
}

// Rssi returns the average RSSI over the packet in dBm.
func (p PacketStatus) Rssi() float64 { return float64(p.rssi) / -2 }

// Snr returns the estimated signal to noise ratio in dB.
func (p PacketStatus) Snr() float64 { return float64(p.snr) / 4 }

// SignalRssi returns the RSSI of the despread LoRa signal in dBm.
func (p PacketStatus) SignalRssi() float64 { return float64(p.signalRssi) / -2 }

func (p PacketStatus) String() string {
	return fmt.Sprintf("rssi=%.1fdBm snr=%.2fdB", p.Rssi(), p.Snr())
}

// RxBufferStatus describes where the last received packet sits in the chip's
// internal 256-byte buffer.
type RxBufferStatus struct {
	PayloadLength byte // length of the received payload
	BufferStart   byte // offset of the first payload byte
}
