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

// Months, 1-based.
const (
	January = 1 + iota
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// Weekday is a day of the week, Monday-based: 0 is Monday, 6 is Sunday.
// RTC chips and the DST rules in this library all use this convention;
// note it differs from time.Weekday.
type Weekday int

// Days of the week.
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "UNSUPPORTED"
	}
	return weekdayNames[d]
}

// Ordinal occurrence of a weekday within a month. Months can stretch over
// up to six Monday-based weeks, so the ordinal goes up to 5 plus the
// special WeekLast which always selects the final occurrence.
const (
	WeekFirst = 1 + iota
	WeekSecond
	WeekThird
	WeekFourth
	WeekFifth
	WeekLast
)

// Date is a broken-down calendar representation of an absolute instant.
// Weekday and YearDay are derived from the other fields during conversion
// and are never authoritative on their own.
type Date struct {
	Year    int     // absolute, includes the century
	Month   int     // January..December
	Day     int     // 1..31
	Weekday Weekday // Monday..Sunday
	Hour    int     // 0..23
	Minute  int     // 0..59
	Second  int     // 0..59
	Micro   int64   // 0..999999
	YearDay int     // 1..366
}

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Zeller's congruence yields 0=Sat..6=Fri; this remaps to Monday-based.
var zellerToWeekday = [7]Weekday{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month of the given
// year. Month must be in January..December.
func DaysInMonth(year, month int) int {
	if month == February && IsLeap(year) {
		return daysPerMonth[1] + 1
	}
	return daysPerMonth[month-1]
}

// WeekdayOf computes the day of the week for a calendar day using Zeller's
// congruence. Month must be in January..December and day within the month.
func WeekdayOf(year, month, day int) Weekday {
	if month <= February {
		month += 12
		year--
	}
	y := year % 100
	c := year / 100
	w := (day + 13*(month+1)/5 + y + y/4 + c/4 + 5*c) % 7
	return zellerToWeekday[w]
}

// WeekdayInMonth returns the day of the month of the ordinal-th occurrence
// of the given weekday. WeekLast (and any ordinal beyond the number of
// occurrences the month actually has) selects the final occurrence; the
// clamping for ordinals 2..5 keeps boundary rules well defined for months
// with only four occurrences of a weekday.
func WeekdayInMonth(year, month, ordinal int, weekday Weekday) int {
	first := WeekdayOf(year, month, 1)
	day := 1 + int(floorMod(int64(weekday-first), 7))
	last := DaysInMonth(year, month)

	count := (last-day)/7 + 1
	if ordinal > count {
		ordinal = count
	}
	return day + (ordinal-1)*7
}

// WeeksInMonth splits a month into Monday-based weeks and returns the first
// and last day of each. A partial leading or trailing week is reported as
// such, so for May 2021 the result is
// [[1 2] [3 9] [10 16] [17 23] [24 30] [31 31]].
func WeeksInMonth(year, month int) [][2]int {
	firstSunday := 7 - int(WeekdayOf(year, month, 1))
	last := DaysInMonth(year, month)

	weeks := make([][2]int, 0, 6)
	weeks = append(weeks, [2]int{1, firstSunday})
	for weeks[len(weeks)-1][1] < last {
		from := weeks[len(weeks)-1][1] + 1
		to := from + 6
		if to > last {
			to = last
		}
		weeks = append(weeks, [2]int{from, to})
	}
	return weeks
}

// Time converts the calendar fields to an absolute instant counted from the
// given epoch. Weekday and YearDay are ignored; they are derived fields.
func (d Date) Time(epoch Epoch) Time {
	days := daysFromCivil(d.Year, d.Month, d.Day) - epochDays[epoch]
	sec := days*86400 + int64(d.Hour)*3600 + int64(d.Minute)*60 + int64(d.Second)
	return Time{Sec: sec, Micro: d.Micro}.normalized()
}

// DateOf converts an absolute instant counted from the given epoch to
// calendar fields, filling in the derived Weekday and YearDay.
func DateOf(t Time, epoch Epoch) Date {
	t = t.normalized()
	days := floorDiv(t.Sec, 86400) + epochDays[epoch]
	rem := t.Sec - (floorDiv(t.Sec, 86400) * 86400)

	year, month, day := civilFromDays(days)
	return Date{
		Year:    year,
		Month:   month,
		Day:     day,
		Weekday: Weekday(floorMod(days+3, 7)), // 1970-01-01 was a Thursday
		Hour:    int(rem / 3600),
		Minute:  int(rem % 3600 / 60),
		Second:  int(rem % 60),
		Micro:   t.Micro,
		YearDay: int(days-daysFromCivil(year, January, 1)) + 1,
	}
}

// daysFromCivil returns the number of days from 1970-01-01 to the given
// proleptic Gregorian calendar day. Negative before the Unix epoch.
func daysFromCivil(year, month, day int) int64 {
	if month <= February {
		year--
	}
	era := floorDiv(int64(year), 400)
	yoe := int64(year) - era*400 // [0, 399]
	var doy int64
	if month > February {
		doy = (153*int64(month-3)+2)/5 + int64(day) - 1
	} else {
		doy = (153*int64(month+9)+2)/5 + int64(day) - 1
	}
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0, 146096]
	return era*146097 + doe - 719468
}

// civilFromDays is the inverse of daysFromCivil.
func civilFromDays(days int64) (year, month, day int) {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097                                        // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365       // [0, 399]
	doy := doe - (365*yoe + yoe/4 - yoe/100)                     // [0, 365]
	mp := (5*doy + 2) / 153                                      // [0, 11]
	day = int(doy - (153*mp+2)/5 + 1)                            // [1, 31]
	month = int(mp) + 3                                          // March-based
	if month > December {
		month -= 12
	}
	year = int(era*400 + yoe)
	if month <= February {
		year++
	}
	return year, month, day
}
