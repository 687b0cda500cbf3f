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
Package dst evaluates Daylight Saving Time rules of the "Nth weekday of
month" form, the way they are published for most jurisdictions: DST starts
on, say, the last Sunday of March at 03:00 and ends on the last Sunday of
October at 04:00, shifting local time by a fixed bias.

A nil *Rule means DST is disabled. Rules are evaluated against local
standard time (UTC plus the fixed timezone offset, with no DST applied),
never against already-DST-shifted local time, so the decision cannot feed
back on itself around the switch instants.
*/
package dst

import (
	"errors"
	"fmt"

	"github.com/facebook/rtctime/calendar"
)

// ErrInvalidBias is returned for bias values that no jurisdiction uses.
var ErrInvalidBias = errors.New("dst bias must be one of 30, 60, 90 or 120 minutes")

// Boundary describes a yearly switch instant as the Nth occurrence of a
// weekday within a month, at a given hour of local standard time.
// Week may be calendar.WeekFirst..WeekLast; WeekLast always selects the
// final occurrence of the weekday in the month. Ordinals beyond what the
// month actually has clamp to the final occurrence as well, so anything
// other than the published first/second/third/fourth/last patterns is
// better avoided.
type Boundary struct {
	Month   int
	Week    int
	Weekday calendar.Weekday
	Hour    int
}

func (b Boundary) validate(which string) error {
	if b.Month < calendar.January || b.Month > calendar.December {
		return fmt.Errorf("dst %s: month %d out of range", which, b.Month)
	}
	if b.Week < calendar.WeekFirst || b.Week > calendar.WeekLast {
		return fmt.Errorf("dst %s: week ordinal %d out of range", which, b.Week)
	}
	if b.Weekday < calendar.Monday || b.Weekday > calendar.Sunday {
		return fmt.Errorf("dst %s: weekday %d out of range", which, b.Weekday)
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("dst %s: hour %d out of range", which, b.Hour)
	}
	return nil
}

// resolve returns the switch point of the boundary for a given year as
// hours from an arbitrary but monotonic origin within that year.
func (b Boundary) resolve(year int) int {
	day := calendar.WeekdayInMonth(year, b.Month, b.Week, b.Weekday)
	return yearKey(b.Month, day, b.Hour)
}

// yearKey orders (month, day, hour) tuples within a year. Days are padded
// to 32 so the key stays monotonic without knowing month lengths.
func yearKey(month, day, hour int) int {
	return (month*32+day)*24 + hour
}

// Rule is a complete DST description: start and end boundaries plus the
// bias applied between them. The switch days move from year to year, so
// the resolved switch points are cached per year; the cache makes Rule
// unsafe for concurrent use, matching the rest of the library's
// caller-serializes contract.
type Rule struct {
	start Boundary
	end   Boundary
	bias  int // seconds

	cacheYear int
	startKey  int
	endKey    int
}

// New validates the boundaries and bias and builds a rule. Bias is in
// minutes; the accepted values are the ones real timezones use. A bias of
// 0 would disable DST, which is spelled as a nil *Rule instead.
func New(start, end Boundary, biasMinutes int) (*Rule, error) {
	if err := start.validate("start"); err != nil {
		return nil, err
	}
	if err := end.validate("end"); err != nil {
		return nil, err
	}
	switch biasMinutes {
	case 30, 60, 90, 120:
	default:
		return nil, ErrInvalidBias
	}
	return &Rule{start: start, end: end, bias: biasMinutes * 60}, nil
}

// Start returns the start boundary.
func (r *Rule) Start() Boundary {
	return r.start
}

// End returns the end boundary.
func (r *Rule) End() Boundary {
	return r.end
}

// BiasMinutes returns the configured bias in minutes.
func (r *Rule) BiasMinutes() int {
	return r.bias / 60
}

// Bias returns the DST shift in seconds in effect at d, or 0 when the rule
// is disabled or d falls outside the DST period. d must be local standard
// time. A start boundary later in the year than the end boundary describes
// a southern-hemisphere DST period that wraps over new year.
func (r *Rule) Bias(d calendar.Date) int {
	if r == nil || r.bias == 0 {
		return 0
	}

	if r.cacheYear != d.Year {
		r.startKey = r.start.resolve(d.Year)
		r.endKey = r.end.resolve(d.Year)
		r.cacheYear = d.Year
	}

	key := yearKey(d.Month, d.Day, d.Hour)
	var active bool
	if r.startKey < r.endKey {
		active = key >= r.startKey && key < r.endKey
	} else {
		active = key >= r.startKey || key < r.endKey
	}
	if active {
		return r.bias
	}
	return 0
}
