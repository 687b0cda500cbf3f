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

package calendar

// MicrosPerSecond is the subsecond resolution the library computes at.
const MicrosPerSecond = int64(1000000)

// Time is an absolute instant: whole seconds since some Epoch plus a
// microsecond fraction. A normalized Time keeps Micro in [0, 1e6); all
// constructors and arithmetic here return normalized values.
//
// Which epoch the seconds count from is tracked by the caller, not by the
// value itself. Use Convert to move between epochs.
type Time struct {
	Sec   int64
	Micro int64
}

// FromMicros builds a Time from a microsecond count since the epoch.
func FromMicros(us int64) Time {
	return Time{Sec: floorDiv(us, MicrosPerSecond), Micro: floorMod(us, MicrosPerSecond)}
}

// Micros returns t as a microsecond count since the epoch.
func (t Time) Micros() int64 {
	return t.Sec*MicrosPerSecond + t.Micro
}

// AddMicros returns t shifted by us microseconds, normalized.
func (t Time) AddMicros(us int64) Time {
	return FromMicros(t.Micros() + us)
}

// Sub returns t-u in microseconds.
func (t Time) Sub(u Time) int64 {
	return t.Micros() - u.Micros()
}

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool {
	return t.Micros() < u.Micros()
}

// IsZero reports whether t is the zero instant of its epoch.
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Micro == 0
}

// normalized carries fraction overflow (or a negative fraction) into the
// whole-seconds field.
func (t Time) normalized() Time {
	if t.Micro >= 0 && t.Micro < MicrosPerSecond {
		return t
	}
	us := t.Micros()
	return Time{Sec: floorDiv(us, MicrosPerSecond), Micro: floorMod(us, MicrosPerSecond)}
}

// floorDiv is integer division rounding towards negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod is the remainder matching floorDiv; the result has the sign of b.
func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
