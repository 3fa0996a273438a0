// Copyright (c) 2017 by Thorsten von Eicken, see LICENSE file for details

package main

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tve/sx126x"
)

// RawRxPacket is the structure published to MQTT for raw packets received on the radio.
type RawRxPacket struct {
	Packet []byte    `json:"packet"` // payload as received, excl preamble, length, CRC
	Rssi   float64   `json:"rssi"`   // RSSI in dBm for packet
	Snr    float64   `json:"snr"`    // signal to noise in dB
	At     time.Time `json:"at"`     // time the packet was picked up
}

// RawTxPacket is the payload expected via MQTT for raw packets to be transmitted on the
// radio. It is a struct for symmetry with RawRxPacket and to allow more fields to be
// added in the future as needed.
type RawTxPacket struct {
	Packet []byte `json:"packet"`
}

// subscribeTx subscribes to the prefix/tx topic and feeds decoded packets into the
// returned channel. Packets arriving while the channel is full are dropped, the
// radio is the bottleneck and the broker redelivers nothing anyway.
func subscribeTx(conn mqtt.Client, prefix string, debug LogPrintf) (<-chan RawTxPacket, error) {
	txChan := make(chan RawTxPacket, 10)
	handler := func(c mqtt.Client, m mqtt.Message) {
		var pkt RawTxPacket
		if err := json.Unmarshal(m.Payload(), &pkt); err != nil {
			log.Printf("%s: cannot decode tx packet: %s", m.Topic(), err)
			return
		}
		select {
		case txChan <- pkt:
		default:
			log.Printf("%s: tx queue full, dropping packet", m.Topic())
		}
	}
	token := conn.Subscribe(prefix+"/tx", 1, handler)
	if !token.WaitTimeout(10 * time.Second) {
		return nil, token.Error()
	}
	if debug != nil {
		debug("Subscribed to %s/tx", prefix)
	}
	return txChan, nil
}

// gateway shuttles packets between the radio and MQTT. It alternates between
// draining the tx queue and a bounded receive so the radio is never parked in
// an unbounded wait while packets queue up for transmit.
func gateway(radio *sx126x.Radio, conn mqtt.Client, prefix string,
	txChan <-chan RawTxPacket, debug LogPrintf,
) {
	buf := make([]byte, 256)
	for {
		select {
		case pkt := <-txChan:
			if debug != nil {
				debug("%s: TX %db: %#x", prefix, len(pkt.Packet), pkt.Packet)
			}
			status, err := radio.Send(pkt.Packet, sx126x.TimeoutMs(3000), 15, sx126x.CrcOn)
			if err != nil {
				log.Printf("%s: tx error: %s", prefix, err)
				continue
			}
			if debug != nil {
				debug("%s: TX done, status %s", prefix, status)
			}
		default:
			n, err := radio.Receive(buf, sx126x.TimeoutMs(1000))
			if err != nil {
				log.Printf("%s: rx error: %s", prefix, err)
				continue
			}
			if n == 0 {
				continue // rx timeout, check tx queue again
			}
			rx := RawRxPacket{Packet: append([]byte{}, buf[:n]...), At: time.Now()}
			if ps, err := radio.GetPacketStatus(); err == nil {
				rx.Rssi = ps.Rssi()
				rx.Snr = ps.Snr()
			}
			log.Printf("%s: RX %.1fdBm %db: %#x", prefix, rx.Rssi, n, rx.Packet)
			payload, err := json.Marshal(rx)
			if err != nil {
				continue
			}
			conn.Publish(prefix+"/rx", 1, false, payload)
		}
	}
}
