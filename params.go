// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

// CalibParam selects which calibration blocks the calibrate command runs.
// Seven flag bits packed low-to-high; bit 7 is reserved and always zero.
type CalibParam byte

// NewCalibParam packs the individual calibration enables into a mask.
func NewCalibParam(rc64k, rc13m, pll, adcPulse, adcBulkN, adcBulkP, image bool) CalibParam {
	var p CalibParam
	if rc64k {
		p |= 1 << 0
	}
	if rc13m {
		p |= 1 << 1
	}
	if pll {
		p |= 1 << 2
	}
	if adcPulse {
		p |= 1 << 3
	}
	if adcBulkN {
		p |= 1 << 4
	}
	if adcBulkP {
		p |= 1 << 5
	}
	if image {
		p |= 1 << 6
	}
	return p
}

// CalibAll enables every calibration block.
const CalibAll CalibParam = 0x7F

// CalibParamFrom masks a raw byte into a valid calibration mask.
func CalibParamFrom(b byte) CalibParam { return CalibParam(b & 0x7F) }

// CalibImageFreq is the two-byte frequency band argument of the image
// calibration command.
type CalibImageFreq uint16

const (
	CalibImage430_440 CalibImageFreq = 0x6B6F
	CalibImage470_510 CalibImageFreq = 0x7581
	CalibImage779_787 CalibImageFreq = 0xC1C5
	CalibImage863_870 CalibImageFreq = 0xD7DB
	CalibImage902_928 CalibImageFreq = 0xE1E9
)

// CalibImageFor buckets an RF frequency in Hz into one of the five documented
// calibration bands. Frequencies outside all bands get the 902-928 code, which
// is what the vendor code does too, questionable as that may be.
func CalibImageFor(hz uint32) CalibImageFreq {
	switch mhz := hz / 1000000; {
	case mhz >= 902 && mhz <= 928:
		return CalibImage902_928
	case mhz >= 863 && mhz <= 870:
		return CalibImage863_870
	case mhz >= 779 && mhz <= 787:
		return CalibImage779_787
	case mhz >= 470 && mhz <= 510:
		return CalibImage470_510
	case mhz >= 430 && mhz <= 440:
		return CalibImage430_440
	}
	return CalibImage902_928
}

func (f CalibImageFreq) bytes() [2]byte { return [2]byte{byte(f >> 8), byte(f)} }

// SpreadFactor is the LoRa spreading factor.
type SpreadFactor byte

const (
	SF5  SpreadFactor = 0x05
	SF6  SpreadFactor = 0x06
	SF7  SpreadFactor = 0x07
	SF8  SpreadFactor = 0x08
	SF9  SpreadFactor = 0x09
	SF10 SpreadFactor = 0x0A
	SF11 SpreadFactor = 0x0B
	SF12 SpreadFactor = 0x0C
)

// Bandwidth is the LoRa channel bandwidth.
type Bandwidth byte

const (
	BW7   Bandwidth = 0x00 // 7.81kHz
	BW10  Bandwidth = 0x08 // 10.42kHz
	BW15  Bandwidth = 0x01 // 15.63kHz
	BW20  Bandwidth = 0x09 // 20.83kHz
	BW31  Bandwidth = 0x02 // 31.25kHz
	BW41  Bandwidth = 0x0A // 41.67kHz
	BW62  Bandwidth = 0x03 // 62.50kHz
	BW125 Bandwidth = 0x04
	BW250 Bandwidth = 0x05
	BW500 Bandwidth = 0x06
)

// CodingRate is the LoRa forward error correction rate.
type CodingRate byte

const (
	CR4_5 CodingRate = 0x01
	CR4_6 CodingRate = 0x02
	CR4_7 CodingRate = 0x03
	CR4_8 CodingRate = 0x04
)

// ModParams are the LoRa modulation parameters.
type ModParams struct {
	SpreadFactor   SpreadFactor
	Bandwidth      Bandwidth
	CodingRate     CodingRate
	LowDataRateOpt bool // stretch symbols at slow rates, needed for SF11/12 @ BW125
}

func (p ModParams) bytes() [8]byte {
	var ldro byte
	if p.LowDataRateOpt {
		ldro = 1
	}
	return [8]byte{byte(p.SpreadFactor), byte(p.Bandwidth), byte(p.CodingRate), ldro,
		0, 0, 0, 0}
}

// HeaderType selects explicit (variable length) or implicit (fixed length)
// LoRa headers.
type HeaderType byte

const (
	VarLenHeader   HeaderType = 0x00
	FixedLenHeader HeaderType = 0x01
)

// CrcType enables the LoRa payload CRC.
type CrcType byte

const (
	CrcOff CrcType = 0x00
	CrcOn  CrcType = 0x01
)

// InvertIq selects standard or inverted IQ, the latter is used by LoRaWAN
// downlinks.
type InvertIq byte

const (
	IqStandard InvertIq = 0x00
	IqInverted InvertIq = 0x01
)

// PacketParams are the LoRa packet framing parameters.
type PacketParams struct {
	PreambleLength uint16
	HeaderType     HeaderType
	PayloadLength  byte
	CrcType        CrcType
	InvertIq       InvertIq
}

func (p PacketParams) bytes() [9]byte {
	return [9]byte{byte(p.PreambleLength >> 8), byte(p.PreambleLength),
		byte(p.HeaderType), p.PayloadLength, byte(p.CrcType), byte(p.InvertIq),
		0, 0, 0}
}

// RampTime is the PA ramp-up time code.
type RampTime byte

const (
	Ramp10us   RampTime = 0x00
	Ramp20us   RampTime = 0x01
	Ramp40us   RampTime = 0x02
	Ramp80us   RampTime = 0x03
	Ramp200us  RampTime = 0x04
	Ramp800us  RampTime = 0x05
	Ramp1700us RampTime = 0x06
	Ramp3400us RampTime = 0x07
)

// TxParams are the transmit power and PA ramp time. The chip accepts -17dBm
// through +22dBm, the exact usable range depends on the PA configuration.
type TxParams struct {
	Power    int // dBm, clamped to [-17,22]
	RampTime RampTime
}

func (p TxParams) bytes() [2]byte {
	pow := p.Power
	if pow < -17 {
		pow = -17
	}
	if pow > 22 {
		pow = 22
	}
	return [2]byte{byte(int8(pow)), byte(p.RampTime)}
}

// DeviceSel selects which chip variant's PA to configure.
type DeviceSel byte

const (
	SX1262 DeviceSel = 0x00
	SX1261 DeviceSel = 0x01
)

// PaConfig is the power amplifier configuration.
type PaConfig struct {
	DutyCycle byte
	HpMax     byte
	DeviceSel DeviceSel
}

func (p PaConfig) bytes() [4]byte {
	// the fourth byte is a reserved constant per the datasheet
	return [4]byte{p.DutyCycle, p.HpMax, byte(p.DeviceSel), 0x01}
}

// Timeout is the 24-bit RX/TX timeout value in units of 15.625us. ContinuousRx
// is a reserved all-ones value that keeps the receiver open indefinitely.
type Timeout uint32

// ContinuousRx disables the RX timeout entirely.
const ContinuousRx Timeout = 0xFFFFFF

// TimeoutMs converts a millisecond duration to a timeout value, truncating to
// the timer's 15.625us granularity and masking to 24 bits.
func TimeoutMs(ms uint32) Timeout {
	return Timeout(uint64(ms) * 64 / 1000 & 0xFFFFFF)
}

func (t Timeout) bytes() [3]byte { return [3]byte{byte(t >> 16), byte(t >> 8), byte(t)} }

// TcxoVoltage is the supply voltage DIO3 provides to a TCXO.
type TcxoVoltage byte

const (
	Tcxo1V6 TcxoVoltage = 0x00
	Tcxo1V7 TcxoVoltage = 0x01
	Tcxo1V8 TcxoVoltage = 0x02
	Tcxo2V2 TcxoVoltage = 0x03
	Tcxo2V4 TcxoVoltage = 0x04
	Tcxo2V7 TcxoVoltage = 0x05
	Tcxo3V0 TcxoVoltage = 0x06
	Tcxo3V3 TcxoVoltage = 0x07
)

// PacketType selects the modem: LoRa or GFSK. This driver only supports LoRa.
type PacketType byte

const (
	PacketGfsk PacketType = 0x00
	PacketLoRa PacketType = 0x01
)

// StandbyConfig selects which oscillator runs in standby.
type StandbyConfig byte

const (
	StandbyRC   StandbyConfig = 0x00
	StandbyXOSC StandbyConfig = 0x01
)

// RfFreq computes the value for the set-rf-frequency command: the target
// frequency in units of f_xtal/2^25, e.g. RfFreq(868000000, 32000000).
func RfFreq(hz, xtal uint32) uint32 {
	return uint32((uint64(hz)<<25 + uint64(xtal)/2) / uint64(xtal))
}
