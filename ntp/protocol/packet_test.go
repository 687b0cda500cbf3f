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

package protocol

import (
	"testing"

	"github.com/facebook/rtctime/calendar"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest()
	require.Equal(t, uint8(LeapNoWarning), req.Leap())
	require.Equal(t, uint8(3), req.Version())
	require.Equal(t, uint8(ModeClient), req.Mode())

	b, err := req.Bytes()
	require.NoError(t, err)
	require.Len(t, b, PacketSizeBytes)
	require.Equal(t, uint8(0x1B), b[0])
	for i := 1; i < PacketSizeBytes; i++ {
		require.Zero(t, b[i], "request byte %d", i)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	p := &Packet{
		Settings:       0x24, // LI 0, version 4, server mode
		Stratum:        2,
		Poll:           6,
		Precision:      -24,
		RootDelay:      1023,
		RootDispersion: 15,
		ReferenceID:    0x47505300, // GPS
		RxTimeSec:      3913056000,
		RxTimeFrac:     1 << 31,
		TxTimeSec:      3913056001,
		TxTimeFrac:     1 << 30,
	}
	b, err := p.Bytes()
	require.NoError(t, err)
	require.Len(t, b, PacketSizeBytes)

	got, err := BytesToPacket(b)
	require.NoError(t, err)
	require.Equal(t, p, got)
	require.Equal(t, uint8(ModeServer), got.Mode())
	require.Equal(t, uint8(4), got.Version())
}

func TestBytesToPacketShort(t *testing.T) {
	_, err := BytesToPacket([]byte{0x1B, 0x00})
	require.Error(t, err)
}

func TestTimeConversion(t *testing.T) {
	// The Unix epoch in NTP representation
	ts := Time(2208988800, 0)
	require.Equal(t, calendar.Time{}, calendar.Convert(ts, calendar.Epoch1900, calendar.Epoch1970))

	// Half-second fraction truncates to 500000 us
	ts = Time(2208988800, 1<<31)
	require.Equal(t, int64(500000), ts.Micro)

	sec, frac := Timestamp(calendar.Time{Sec: 2208988800, Micro: 500000})
	require.Equal(t, uint32(2208988800), sec)
	require.InDelta(t, uint64(1)<<31, uint64(frac), 4096) // truncation keeps ~us precision
	require.Equal(t, int64(500000), Time(sec, frac).Micro)
}
