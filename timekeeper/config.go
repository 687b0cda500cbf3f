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

package timekeeper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facebook/rtctime/calendar"
	"github.com/facebook/rtctime/dst"
	"github.com/facebook/rtctime/ntp/client"
	"github.com/facebook/rtctime/rtc"
	"github.com/facebook/rtctime/stats"
)

var (
	// ErrInvalidTimezone is returned for offsets outside ±24h or with
	// out-of-range fields. The previously configured timezone stays.
	ErrInvalidTimezone = errors.New("timekeeper: invalid timezone offset")
	// ErrInvalidEpoch is returned for epochs other than 1900/1970/2000.
	ErrInvalidEpoch = errors.New("timekeeper: unsupported epoch")
	// ErrNoDevice means the config carries no RTC capability.
	ErrNoDevice = errors.New("timekeeper: no RTC device configured")
)

// HostValidator decides whether a hostname or literal address may enter
// the server list. Hostname grammar is not this library's business; the
// default only rejects strings that cannot possibly dial.
type HostValidator func(host string) bool

func defaultHostValidator(host string) bool {
	return host != "" && !strings.ContainsAny(host, " \t\r\n")
}

// Config carries everything a Timekeeper needs. Device and DeviceEpoch
// are the only knobs that cannot change for the life of the process;
// the rest has setters on Timekeeper.
type Config struct {
	// Device is the RTC capability. Required.
	Device rtc.Device
	// DeviceEpoch is the epoch the RTC hardware counts from, fixed for
	// the process lifetime.
	DeviceEpoch calendar.Epoch
	// Epoch is the default epoch of all accessor results. nil means the
	// device epoch.
	Epoch *calendar.Epoch

	// Servers is the NTP host list in failover priority order.
	Servers []string
	// Timeout is the per-host network timeout; client.DefaultTimeout
	// when zero.
	Timeout time.Duration

	// TimezoneHours/TimezoneMinutes form the fixed UTC offset. The
	// minutes take the sign of the hours.
	TimezoneHours   int
	TimezoneMinutes int
	// DST is the Daylight Saving Time rule; nil disables DST.
	DST *dst.Rule

	// HostValidator filters Servers; a permissive default when nil.
	HostValidator HostValidator
	// Stats receives operation metrics; private counters when nil.
	Stats stats.Stats
	// Exchanger overrides the NTP transport; UDP when nil.
	Exchanger client.Exchanger
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if c.Device == nil {
		return ErrNoDevice
	}
	if !c.Device.Precision().Valid() {
		return fmt.Errorf("timekeeper: device reports unsupported precision %d", c.Device.Precision())
	}
	if !c.DeviceEpoch.Valid() {
		return fmt.Errorf("%w: device epoch %d", ErrInvalidEpoch, c.DeviceEpoch)
	}
	if c.Epoch != nil && !c.Epoch.Valid() {
		return fmt.Errorf("%w: default epoch %d", ErrInvalidEpoch, *c.Epoch)
	}
	if _, err := timezoneOffset(c.TimezoneHours, c.TimezoneMinutes); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timekeeper: negative timeout %s", c.Timeout)
	}
	return nil
}

// timezoneOffset validates an hour/minute pair and folds it into seconds
// east of UTC. The hour carries the sign for both fields.
func timezoneOffset(hours, minutes int) (int, error) {
	if hours < -23 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %+03d:%02d", ErrInvalidTimezone, hours, minutes)
	}
	offset := hours*3600 + minutes*60
	if hours < 0 {
		offset = hours*3600 - minutes*60
	}
	return offset, nil
}
