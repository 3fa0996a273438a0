// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

// Command opcodes. Unlike the sx127x generation the sx126x is driven by
// variable-length commands instead of a flat register file; registers still
// exist but are reached through the read/write register commands.
const (
	CMD_SET_SLEEP            = 0x84
	CMD_SET_STANDBY          = 0x80
	CMD_SET_FS               = 0xC1
	CMD_SET_TX               = 0x83
	CMD_SET_RX               = 0x82
	CMD_SET_RF_FREQUENCY     = 0x86
	CMD_SET_PACKET_TYPE      = 0x8A
	CMD_GET_PACKET_TYPE      = 0x11
	CMD_SET_MOD_PARAMS       = 0x8B
	CMD_SET_PACKET_PARAMS    = 0x8C
	CMD_SET_TX_PARAMS        = 0x8E
	CMD_SET_PA_CONFIG        = 0x95
	CMD_SET_BUFFER_BASE      = 0x8F
	CMD_CALIBRATE            = 0x89
	CMD_CALIBRATE_IMAGE      = 0x98
	CMD_SET_DIO_IRQ_PARAMS   = 0x08
	CMD_GET_IRQ_STATUS       = 0x12
	CMD_CLEAR_IRQ_STATUS     = 0x02
	CMD_SET_DIO2_RF_SWITCH   = 0x9D
	CMD_SET_DIO3_TCXO_CTRL   = 0x97
	CMD_GET_DEVICE_ERRORS    = 0x17
	CMD_CLEAR_DEVICE_ERRORS  = 0x07
	CMD_WRITE_REGISTER       = 0x0D
	CMD_READ_REGISTER        = 0x1D
	CMD_WRITE_BUFFER         = 0x0E
	CMD_READ_BUFFER          = 0x1E
	CMD_GET_STATUS           = 0xC0
	CMD_GET_STATS            = 0x10
	CMD_GET_RX_BUFFER_STATUS = 0x13
	CMD_GET_PACKET_STATUS    = 0x14
)

// Register addresses, accessed via CMD_READ_REGISTER / CMD_WRITE_REGISTER.
const (
	REG_SYNCWORD_MSB = 0x0740
	REG_RX_GAIN      = 0x08AC
	REG_OCP          = 0x08E7
)

// RX gain register value for the boosted-gain sensitivity workaround.
const RX_GAIN_BOOSTED = 0x96

// NOP filler byte clocked out while the chip drives responses.
const NOP = 0x00
