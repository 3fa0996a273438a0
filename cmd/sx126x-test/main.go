// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

// sx126x-test exercises an SX1261/62 LoRa radio: it initializes the chip and
// then either transmits a couple of test packets or sits in receive and prints
// what comes in. The radio may sit on a shared SPI bus, hence the chip select
// is driven explicitly through busmux.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/tve/sx126x"
	"github.com/tve/sx126x/busmux"
)

func panicIf(err error) {
	if err != nil {
		panic(err)
	}
}

func inPin(name string, edge gpio.Edge) gpio.PinIO {
	pin := gpioreg.ByName(name)
	if pin == nil {
		panic("cannot open pin " + name)
	}
	panicIf(pin.In(gpio.Float, edge))
	return pin
}

func outPin(name string) gpio.PinIO {
	pin := gpioreg.ByName(name)
	if pin == nil {
		panic("cannot open pin " + name)
	}
	return pin
}

func main() {
	spiDev := flag.String("spi", "", "SPI port name, empty for the first one")
	csName := flag.String("cs", "GPIO8", "chip select pin name")
	rstName := flag.String("rst", "GPIO22", "reset pin name")
	busyName := flag.String("busy", "GPIO24", "busy pin name")
	dio1Name := flag.String("dio1", "GPIO25", "DIO1 interrupt pin name")
	antName := flag.String("ant", "", "antenna switch pin name, empty for none")
	freq := flag.Uint("freq", 868000000, "center frequency in Hz")
	power := flag.Int("power", 14, "output power in dBm")
	syncWord := flag.Uint("sync", 0x1424, "LoRa sync word (0x3444 for public networks)")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	_, err := host.Init()
	panicIf(err)

	port, err := spireg.Open(*spiDev)
	panicIf(err)
	conn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	panicIf(err)

	sb := busmux.NewShared(&busmux.SPIConn{Conn: conn, Closer: port})
	dev, err := sb.NewDevice(&busmux.GPIOSelect{Pin: outPin(*csName)})
	panicIf(err)
	defer dev.Close()

	opts := sx126x.RadioOpts{}
	if *debug {
		opts.Logger = log.Printf
	}
	if *antName != "" {
		opts.Ant = sx126x.Pin{PinIO: outPin(*antName)}
	}
	radio := sx126x.New(dev,
		sx126x.Pin{PinIO: outPin(*rstName)},
		sx126x.Pin{PinIO: inPin(*busyName, gpio.FallingEdge)},
		sx126x.Pin{PinIO: inPin(*dio1Name, gpio.RisingEdge)},
		opts)

	log.Printf("Initializing LoRa radio at %dHz...", *freq)
	t0 := time.Now()
	cfg := &sx126x.Config{
		PacketType: sx126x.PacketLoRa,
		SyncWord:   uint16(*syncWord),
		CalibParam: sx126x.CalibAll,
		ModParams: sx126x.ModParams{
			SpreadFactor: sx126x.SF10,
			Bandwidth:    sx126x.BW125,
			CodingRate:   sx126x.CR4_6,
		},
		PaConfig:    sx126x.PaConfig{DutyCycle: 0x04, HpMax: 0x07, DeviceSel: sx126x.SX1262},
		TxParams:    sx126x.TxParams{Power: *power, RampTime: sx126x.Ramp200us},
		Dio1IrqMask: sx126x.IrqNone.With(sx126x.IrqTxDone, sx126x.IrqRxDone, sx126x.IrqTimeout),
		RfFreq:      sx126x.RfFreq(uint32(*freq), 32000000),
		Frequency:   uint32(*freq),
		Tcxo:        &sx126x.TcxoOpts{Voltage: sx126x.Tcxo2V4, Startup: 5 * time.Millisecond},
	}
	panicIf(radio.Init(cfg))
	panicIf(radio.SetOcp(140))
	panicIf(radio.SetAntEnabled(true))
	log.Printf("Ready (%.1fms)", time.Since(t0).Seconds()*1000)

	if len(flag.Args()) > 0 && flag.Args()[0] == "tx" {

		for i := 1; i <= 2; i++ {
			msg := fmt.Sprintf("\x01Hello %03d", i)
			log.Printf("Sending packet %d ...", i)
			t0 = time.Now()
			status, err := radio.Send([]byte(msg), sx126x.TimeoutMs(3000), 15, sx126x.CrcOn)
			panicIf(err)
			log.Printf("Sent in %.1fms, status %s", time.Since(t0).Seconds()*1000, status)
			time.Sleep(100 * time.Millisecond)
		}
		log.Printf("Bye...")

	} else {

		log.Printf("Receiving packets ...")
		buf := make([]byte, 256)
		for {
			n, err := radio.Receive(buf, sx126x.TimeoutMs(5000))
			if err != nil {
				log.Printf("receive error: %s", err)
				os.Exit(2)
			}
			if n == 0 {
				continue // timeout, keep listening
			}
			ps, err := radio.GetPacketStatus()
			panicIf(err)
			log.Printf("Got len=%d rssi=%.1fdBm snr=%.2fdB %q",
				n, ps.Rssi(), ps.Snr(), string(buf[:n]))
		}
	}
}
