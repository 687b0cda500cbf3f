/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package protocol implements the 48-byte NTP client/server packet and the
conversion between NTP 32.32 fixed-point timestamps and absolute time.
It provides quick and transparent translation between the wire bytes and a
simply accessible struct in the most efficient way.
*/
package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/facebook/rtctime/calendar"
)

// PacketSizeBytes is the size of an NTP packet without extensions.
const PacketSizeBytes = 48

// Packet is an NTPv4 packet
/*
http://seriot.ch/ntp.php
https://tools.ietf.org/html/rfc958
   0                   1                   2                   3
   0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
0 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |LI | VN  |Mode |    Stratum     |     Poll      |  Precision   |
4 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                         Root Delay                            |
8 +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                         Root Dispersion                       |
12+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                          Reference ID                         |
16+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                     Reference Timestamp (64)                  +
  |                                                               |
24+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Origin Timestamp (64)                    +
  |                                                               |
32+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Receive Timestamp (64)                   +
  |                                                               |
40+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
  |                                                               |
  +                      Transmit Timestamp (64)                  +
  |                                                               |
48+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

 0 1 2 3 4 5 6 7
+-+-+-+-+-+-+-+-+
|LI | VN  |Mode |
+-+-+-+-+-+-+-+-+
 0 0 0 1 1 0 1 1

Settings = LI | VN | Mode. Client request example:
00 011 011 (or 0x1B)
|  |   +-- client mode (3)
|  + ----- version (3)
+ -------- leap indicator, 0 no warning
*/
type Packet struct {
	Settings       uint8  // leap indicator, version number and mode
	Stratum        uint8  // stratum
	Poll           int8   // poll. Power of 2
	Precision      int8   // precision. Power of 2
	RootDelay      uint32 // total delay to the reference clock
	RootDispersion uint32 // total dispersion to the reference clock
	ReferenceID    uint32 // identifier of server or a reference clock
	RefTimeSec     uint32 // last time local clock was updated sec
	RefTimeFrac    uint32 // last time local clock was updated frac
	OrigTimeSec    uint32 // client time sec
	OrigTimeFrac   uint32 // client time frac
	RxTimeSec      uint32 // receive time sec
	RxTimeFrac     uint32 // receive time frac
	TxTimeSec      uint32 // transmit time sec
	TxTimeFrac     uint32 // transmit time frac
}

// Leap indicator and mode values this client cares about.
const (
	LeapNoWarning = 0
	LeapAddSecond = 1
	LeapDelSecond = 2
	LeapNotInSync = 3

	ModeClient = 3
	ModeServer = 4

	MinServerStratum = 1
	MaxServerStratum = 15

	// requestSettings is LI 0, version 3, client mode
	requestSettings = 0x1B
)

// NewRequest builds a minimal client request. All timestamp fields are
// left zero; the reply is matched by the blocking exchange itself, not by
// the origin timestamp.
func NewRequest() *Packet {
	return &Packet{Settings: requestSettings}
}

// Leap extracts the leap indicator from the settings byte.
func (p *Packet) Leap() uint8 {
	return p.Settings >> 6
}

// Version extracts the protocol version from the settings byte.
func (p *Packet) Version() uint8 {
	return (p.Settings << 2) >> 5
}

// Mode extracts the association mode from the settings byte.
func (p *Packet) Mode() uint8 {
	return p.Settings & 0x7
}

// Bytes converts Packet to []bytes
func (p *Packet) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := binary.Write(&buf, binary.BigEndian, p)
	return buf.Bytes(), err
}

// BytesToPacket converts []bytes to Packet
func BytesToPacket(b []byte) (*Packet, error) {
	packet := &Packet{}
	reader := bytes.NewReader(b)
	err := binary.Read(reader, binary.BigEndian, packet)
	return packet, err
}

// Time converts an NTP timestamp (32-bit seconds since 1900 plus 32-bit
// second fraction) to an absolute instant at epoch 1900. The fraction is
// truncated to microseconds.
func Time(sec, frac uint32) calendar.Time {
	us := int64(sec)*calendar.MicrosPerSecond + int64(frac)*calendar.MicrosPerSecond>>32
	return calendar.FromMicros(us)
}

// Timestamp converts an absolute instant at epoch 1900 back to NTP
// seconds and fraction.
func Timestamp(t calendar.Time) (sec, frac uint32) {
	return uint32(t.Sec), uint32(t.Micro << 32 / calendar.MicrosPerSecond)
}
