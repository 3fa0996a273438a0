// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

// mqttlora gateways raw LoRa packets between an SX1261/62 radio and an MQTT
// broker: packets received over the air are published as JSON to <prefix>/rx,
// and JSON packets arriving on <prefix>/tx are transmitted. The radio sits on
// a (possibly shared) SPI bus arbitrated through busmux.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/tve/sx126x"
	"github.com/tve/sx126x/busmux"
	"github.com/tve/sx126x/thread"
)

// LogPrintf is the logging function type used for debug output.
type LogPrintf func(format string, v ...interface{})

func fatalIf(err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", what, err)
		os.Exit(2)
	}
}

func openIn(name string, edge gpio.Edge) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("cannot open pin %s", name)
	}
	if err := pin.In(gpio.Float, edge); err != nil {
		return nil, err
	}
	return pin, nil
}

func openOut(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("cannot open pin %s", name)
	}
	return pin, nil
}

func main() {
	mqttHost := flag.String("mqtt", "localhost:1883", "host:port of MQTT broker")
	prefix := flag.String("prefix", "lora/0", "MQTT topic prefix for the radio")
	spiDev := flag.String("spi", "", "SPI port name, empty for the first one")
	csName := flag.String("cs", "GPIO8", "chip select pin name")
	rstName := flag.String("rst", "GPIO22", "reset pin name")
	busyName := flag.String("busy", "GPIO24", "busy pin name")
	dio1Name := flag.String("dio1", "GPIO25", "DIO1 interrupt pin name")
	antName := flag.String("ant", "", "antenna switch pin name, empty for none")
	freq := flag.Uint("freq", 868000000, "center frequency in Hz")
	power := flag.Int("power", 14, "output power in dBm")
	syncWord := flag.Uint("sync", 0x1424, "LoRa sync word (0x3444 for public networks)")
	rt := flag.Bool("rt", false, "run the radio loop at realtime priority")
	debug := flag.Bool("debug", false, "enable debug output")
	flag.Parse()

	var logger LogPrintf
	if *debug {
		logger = log.Printf
	}

	// MQTT broker connection first: no point in touching hardware if it fails.
	hostname, _ := os.Hostname()
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + *mqttHost).
		SetClientID("mqttlora-" + hostname)
	conn := mqtt.NewClient(opts)
	if token := conn.Connect(); !token.WaitTimeout(10 * time.Second) {
		fatalIf(token.Error(), "MQTT connect")
		fatalIf(fmt.Errorf("timeout connecting to %s", *mqttHost), "MQTT connect")
	}
	log.Printf("MQTT connected to %s", *mqttHost)

	txChan, err := subscribeTx(conn, *prefix, logger)
	fatalIf(err, "MQTT subscribe")

	_, err = host.Init()
	fatalIf(err, "periph init")

	port, err := spireg.Open(*spiDev)
	fatalIf(err, "SPI open")
	spiConn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	fatalIf(err, "SPI connect")

	csPin, err := openOut(*csName)
	fatalIf(err, "chip select")
	rstPin, err := openOut(*rstName)
	fatalIf(err, "reset pin")
	busyPin, err := openIn(*busyName, gpio.FallingEdge)
	fatalIf(err, "busy pin")
	dio1Pin, err := openIn(*dio1Name, gpio.RisingEdge)
	fatalIf(err, "dio1 pin")

	sb := busmux.NewShared(&busmux.SPIConn{Conn: spiConn, Closer: port})
	dev, err := sb.NewDevice(&busmux.GPIOSelect{Pin: csPin})
	fatalIf(err, "bus device")

	ropts := sx126x.RadioOpts{Logger: sx126x.LogPrintf(logger)}
	if *antName != "" {
		antPin, err := openOut(*antName)
		fatalIf(err, "antenna pin")
		ropts.Ant = sx126x.Pin{PinIO: antPin}
	}
	radio := sx126x.New(dev,
		sx126x.Pin{PinIO: rstPin},
		sx126x.Pin{PinIO: busyPin},
		sx126x.Pin{PinIO: dio1Pin},
		ropts)

	log.Printf("Initializing LoRa radio at %dHz", *freq)
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
	fatalIf(radio.Init(cfg), "radio init")
	fatalIf(radio.SetOcp(140), "radio ocp")
	fatalIf(radio.SetAntEnabled(true), "antenna switch")
	log.Printf("LoRa radio ready")

	if *rt {
		if err := thread.Realtime(10); err != nil {
			log.Printf("cannot set realtime priority: %s", err)
		}
	}
	log.Printf("Gateway is ready")
	gateway(radio, conn, *prefix, txChan, logger)
}
