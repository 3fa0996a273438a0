// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import "time"

// TcxoOpts describes a TCXO wired to DIO3: the supply voltage the chip should
// provide and how long the oscillator takes to start. The startup time is also
// waited out in Init after enabling the TCXO.
type TcxoOpts struct {
	Voltage TcxoVoltage
	Startup time.Duration
}

// Config aggregates all chip parameters consumed by Init. Build one per
// session; Init reads it once and does not retain it.
type Config struct {
	PacketType   PacketType
	SyncWord     uint16 // 0x3444 for public networks (TTN), 0x1424 for private
	CalibParam   CalibParam
	ModParams    ModParams
	PaConfig     PaConfig
	PacketParams *PacketParams // nil to configure framing later (Send sets its own)
	TxParams     TxParams
	Dio1IrqMask  IrqMask
	Dio2IrqMask  IrqMask
	Dio3IrqMask  IrqMask
	RfFreq       uint32    // register value, from RfFreq(hz, xtal)
	Frequency    uint32    // target frequency in Hz, used for image calibration
	Tcxo         *TcxoOpts // nil when running off a plain crystal
}
