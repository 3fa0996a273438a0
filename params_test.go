// Copyright 2017 by Thorsten von Eicken, see LICENSE file

package sx126x

import "testing"

func TestCalibParamRoundtrip(t *testing.T) {
	for i := 0; i < 256; i++ {
		p := CalibParamFrom(byte(i))
		if byte(p)&0x80 != 0 {
			t.Fatalf("CalibParamFrom(%#x) has reserved bit 7 set", i)
		}
		if byte(p) != byte(i)&0x7F {
			t.Fatalf("CalibParamFrom(%#x) = %#x, want %#x", i, byte(p), i&0x7F)
		}
	}
	if all := NewCalibParam(true, true, true, true, true, true, true); all != CalibAll {
		t.Fatalf("all-flags mask = %#x, want %#x", byte(all), byte(CalibAll))
	}
	if p := NewCalibParam(false, true, false, false, false, false, true); byte(p) != 0x42 {
		t.Fatalf("rc13m+image mask = %#x, want 0x42", byte(p))
	}
}

func TestTimeoutMs(t *testing.T) {
	// value must be floor(ms*64/1000) masked to 24 bits over the full range
	for _, ms := range []uint32{0, 1, 15, 16, 999, 1000, 2000, 5000, 1 << 20, 262143984} {
		want := Timeout(uint64(ms) * 64 / 1000 & 0xFFFFFF)
		if got := TimeoutMs(ms); got != want {
			t.Fatalf("TimeoutMs(%d) = %#x, want %#x", ms, uint32(got), uint32(want))
		}
	}
	if b := TimeoutMs(1000).bytes(); b != [3]byte{0x00, 0x00, 0x40} {
		t.Fatalf("TimeoutMs(1000) bytes = %#x", b)
	}
	if b := ContinuousRx.bytes(); b != [3]byte{0xFF, 0xFF, 0xFF} {
		t.Fatalf("ContinuousRx bytes = %#x", b)
	}
}

func TestCalibImageFor(t *testing.T) {
	tests := map[string]struct {
		hz   uint32
		want CalibImageFreq
	}{
		"868MHz":  {868000000, CalibImage863_870},
		"915MHz":  {915000000, CalibImage902_928},
		"433MHz":  {433000000, CalibImage430_440},
		"500MHz":  {500000000, CalibImage470_510},
		"780MHz":  {780000000, CalibImage779_787},
		"600MHz":  {600000000, CalibImage902_928}, // out of band, vendor default
		"2400MHz": {2400000000, CalibImage902_928},
	}
	for name, tc := range tests {
		if got := CalibImageFor(tc.hz); got != tc.want {
			t.Fatalf("%s: CalibImageFor(%d) = %#x, want %#x", name, tc.hz, uint16(got), uint16(tc.want))
		}
	}
	if b := CalibImage863_870.bytes(); b != [2]byte{0xD7, 0xDB} {
		t.Fatalf("863-870 band bytes = %#x", b)
	}
}

func TestRfFreq(t *testing.T) {
	if got := RfFreq(868000000, 32000000); got != 910163968 {
		t.Fatalf("RfFreq(868MHz, 32MHz) = %d, want 910163968", got)
	}
	if got := RfFreq(915000000, 32000000); got != 959447040 {
		t.Fatalf("RfFreq(915MHz, 32MHz) = %d, want 959447040", got)
	}
}

func TestModParamsEncode(t *testing.T) {
	p := ModParams{SpreadFactor: SF10, Bandwidth: BW125, CodingRate: CR4_6, LowDataRateOpt: true}
	want := [8]byte{0x0A, 0x04, 0x02, 0x01, 0, 0, 0, 0}
	if got := p.bytes(); got != want {
		t.Fatalf("mod params = %#x, want %#x", got, want)
	}
}

func TestPacketParamsEncode(t *testing.T) {
	p := PacketParams{PreambleLength: 0x0123, HeaderType: VarLenHeader,
		PayloadLength: 0x40, CrcType: CrcOn, InvertIq: IqInverted}
	want := [9]byte{0x01, 0x23, 0x00, 0x40, 0x01, 0x01, 0, 0, 0}
	if got := p.bytes(); got != want {
		t.Fatalf("packet params = %#x, want %#x", got, want)
	}
}

func TestTxParamsClamp(t *testing.T) {
	tests := map[string]struct {
		power int
		want  byte
	}{
		"max":      {22, 0x16},
		"over":     {30, 0x16},
		"min":      {-17, 0xEF},
		"under":    {-40, 0xEF},
		"negative": {-9, 0xF7},
		"zero":     {0, 0x00},
	}
	for name, tc := range tests {
		p := TxParams{Power: tc.power, RampTime: Ramp200us}
		if got := p.bytes(); got[0] != tc.want || got[1] != 0x04 {
			t.Fatalf("%s: tx params = %#x, want [%#x 0x04]", name, got, tc.want)
		}
	}
}

func TestPaConfigEncode(t *testing.T) {
	p := PaConfig{DutyCycle: 0x04, HpMax: 0x07, DeviceSel: SX1262}
	want := [4]byte{0x04, 0x07, 0x00, 0x01}
	if got := p.bytes(); got != want {
		t.Fatalf("pa config = %#x, want %#x", got, want)
	}
}
