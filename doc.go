// Copyright 2017 by Thorsten von Eicken, see LICENSE file

// Package sx126x drives a Semtech SX1261/62 LoRa modem attached to an SPI bus
// that may be shared with other peripherals. It uses periph.io for the low
// level access to the hardware pins and the busmux subpackage to arbitrate the
// shared bus. Commands to test the radio and to gateway packets to MQTT can be
// found in the cmd directory tree.
//
// The package has three layers: the command codec (bit-exact encodings of the
// chip's binary command layouts), the Radio methods issuing individual
// commands (each waits for the chip's busy line before touching the bus), and
// the session layer (Init, Send, Receive) composing them into complete
// interrupt-driven packet exchanges.
package sx126x
