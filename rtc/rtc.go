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
Package rtc defines the capability contract to the real-time-clock
hardware. The library never talks to a chip directly; it reads and writes
broken-down calendar fields through a Device, and the Device declares the
subsecond precision its hardware genuinely keeps, so that drift arithmetic
can work in real hardware units instead of pretending every clock counts
microseconds.
*/
package rtc

import (
	"errors"
	"fmt"

	"github.com/facebook/rtctime/calendar"
)

// Precision is the subsecond resolution an RTC keeps.
type Precision int

// The three precision levels real RTC hardware comes in.
const (
	Seconds Precision = iota
	Milliseconds
	Microseconds
)

// ErrCallbackFailed wraps failures of the underlying RTC driver.
var ErrCallbackFailed = errors.New("rtc callback failed")

// Valid reports whether p is a known precision level.
func (p Precision) Valid() bool {
	return p >= Seconds && p <= Microseconds
}

func (p Precision) String() string {
	switch p {
	case Seconds:
		return "s"
	case Milliseconds:
		return "ms"
	case Microseconds:
		return "us"
	}
	return "UNSUPPORTED"
}

// UnitsPerSecond returns how many of the device's subsecond units make up
// one second: 1, 1000 or 1000000.
func (p Precision) UnitsPerSecond() int64 {
	switch p {
	case Milliseconds:
		return 1000
	case Microseconds:
		return 1000000
	}
	return 1
}

// Micros converts a count of device units to microseconds.
func (p Precision) Micros(units int64) int64 {
	return units * (calendar.MicrosPerSecond / p.UnitsPerSecond())
}

// Units converts microseconds to device units, truncating what the
// hardware cannot represent.
func (p Precision) Units(us int64) int64 {
	return us / (calendar.MicrosPerSecond / p.UnitsPerSecond())
}

// Device is the narrow read/write contract to RTC hardware. Date.Micro is
// always in microseconds at this boundary; implementations scale to their
// hardware units. The Weekday field is kept in sync by callers on write,
// as many RTC chips store it as an independent register.
type Device interface {
	// Precision reports the subsecond resolution the hardware keeps.
	Precision() Precision
	// ReadTime returns the current RTC reading.
	ReadTime() (calendar.Date, error)
	// SetTime writes a new reading to the RTC.
	SetTime(calendar.Date) error
}

// Callback mirrors the single-function RTC drivers common on embedded
// runtimes: called with nil it reads, called with a date it writes.
// Date.Micro is in the device's own subsecond units.
type Callback func(d *calendar.Date) (calendar.Date, error)

// CallbackDevice adapts a Callback to the Device interface, scaling
// Date.Micro between device units and microseconds and wrapping driver
// failures in ErrCallbackFailed.
type CallbackDevice struct {
	cb        Callback
	precision Precision
}

// NewCallbackDevice wraps cb, whose subsecond fields are in units of p.
func NewCallbackDevice(cb Callback, p Precision) (*CallbackDevice, error) {
	if cb == nil {
		return nil, errors.New("rtc: callback must not be nil")
	}
	if !p.Valid() {
		return nil, fmt.Errorf("rtc: unsupported precision %d", p)
	}
	return &CallbackDevice{cb: cb, precision: p}, nil
}

// Precision implements Device.
func (d *CallbackDevice) Precision() Precision {
	return d.precision
}

// ReadTime implements Device.
func (d *CallbackDevice) ReadTime() (calendar.Date, error) {
	dt, err := d.cb(nil)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("%w: %v", ErrCallbackFailed, err)
	}
	dt.Micro = d.precision.Micros(dt.Micro)
	return dt, nil
}

// SetTime implements Device.
func (d *CallbackDevice) SetTime(dt calendar.Date) error {
	dt.Micro = d.precision.Units(dt.Micro)
	if _, err := d.cb(&dt); err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackFailed, err)
	}
	return nil
}
