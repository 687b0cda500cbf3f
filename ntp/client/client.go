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
Package client implements a minimal SNTP client for devices that cannot
afford a full NTP association: one request per host, one reply, no
round-trip compensation. The ordered host list is the retry mechanism —
a host that fails to resolve, times out or answers garbage is skipped and
the next one is tried; no host is ever retried within a single query.
*/
package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/rtctime/calendar"
	"github.com/facebook/rtctime/ntp/protocol"
	"github.com/facebook/rtctime/stats"
)

// NTPPort is the well-known NTP UDP port.
const NTPPort = 123

// DefaultTimeout is the per-host network timeout.
const DefaultTimeout = time.Second

var (
	// ErrNoHosts means the host list is empty.
	ErrNoHosts = errors.New("no NTP hosts configured")
	// ErrNoResponse means every host in the list failed.
	ErrNoResponse = errors.New("no NTP host responded")
	// ErrMalformedReply marks replies that fail basic validation.
	ErrMalformedReply = errors.New("malformed NTP reply")
)

// Exchanger is the network primitive the client runs on: send one request
// datagram to host and return up to one reply within timeout. DNS
// resolution and address-family handling are the exchanger's business.
type Exchanger interface {
	Exchange(host string, req []byte, timeout time.Duration) ([]byte, error)
}

// UDPExchanger is the stock Exchanger over UDP.
type UDPExchanger struct {
	// Port overrides the NTP port, for tests and unprivileged servers.
	Port int
}

// Exchange implements Exchanger.
func (e *UDPExchanger) Exchange(host string, req []byte, timeout time.Duration) ([]byte, error) {
	port := e.Port
	if port == 0 {
		port = NTPPort
	}
	conn, err := net.DialTimeout("udp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(req); err != nil {
		return nil, err
	}
	buf := make([]byte, protocol.PacketSizeBytes)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Result is a successful exchange with one server.
type Result struct {
	// Time is the server's transmit timestamp: UTC, counted from epoch 1900.
	Time calendar.Time
	// SendMarker is a local monotonic timestamp taken right before the
	// request went out. It is bookkeeping for the drift engine, not a
	// round-trip correction.
	SendMarker time.Time
	// Host is the server that answered.
	Host string
}

// Client queries an ordered list of NTP hosts with per-host timeout and
// failover. The zero value is usable: UDP transport, default timeout,
// private counters.
type Client struct {
	// Timeout is the per-host wait; DefaultTimeout when zero.
	Timeout time.Duration
	// Exchanger overrides the transport; UDP when nil.
	Exchanger Exchanger
	// Stats receives exchange metrics; private counters when nil.
	Stats stats.Stats
}

// Query walks hosts in order and returns the first valid reply. Failures
// are logged per host and counted; only when the whole list is exhausted
// does Query fail, with ErrNoResponse.
func (c *Client) Query(hosts []string) (*Result, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	exchanger := c.Exchanger
	if exchanger == nil {
		exchanger = &UDPExchanger{}
	}
	st := c.Stats
	if st == nil {
		st = &stats.Counters{}
	}

	req, err := protocol.NewRequest().Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	for _, host := range hosts {
		st.IncRequests()
		marker := time.Now()
		reply, err := exchanger.Exchange(host, req, timeout)
		if err != nil {
			st.IncFailures()
			log.Warningf("ntp: network error: host %s: %v", host, err)
			continue
		}
		res, err := parseReply(reply)
		if err != nil {
			st.IncInvalidFormat()
			log.Warningf("ntp: host %s: %v", host, err)
			continue
		}
		res.SendMarker = marker
		res.Host = host
		log.Debugf("ntp: got valid reply from %s", host)
		return res, nil
	}
	return nil, ErrNoResponse
}

// parseReply validates a reply and extracts the transmit timestamp.
func parseReply(b []byte) (*Result, error) {
	if len(b) != protocol.PacketSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedReply, len(b))
	}
	p, err := protocol.BytesToPacket(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if p.Mode() != protocol.ModeServer {
		return nil, fmt.Errorf("%w: mode %d is not a server reply", ErrMalformedReply, p.Mode())
	}
	if p.Leap() == protocol.LeapNotInSync {
		return nil, fmt.Errorf("%w: server clock not synchronized", ErrMalformedReply)
	}
	if p.Stratum < protocol.MinServerStratum || p.Stratum > protocol.MaxServerStratum {
		return nil, fmt.Errorf("%w: stratum %d out of range", ErrMalformedReply, p.Stratum)
	}
	if p.TxTimeSec == 0 || p.RxTimeSec == 0 {
		return nil, fmt.Errorf("%w: zero timestamp", ErrMalformedReply)
	}
	return &Result{Time: protocol.Time(p.TxTimeSec, p.TxTimeFrac)}, nil
}
