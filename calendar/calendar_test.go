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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEpochDeltas(t *testing.T) {
	// A count from an earlier epoch shrinks when re-based on a later one.
	require.Equal(t, int64(-2208988800), Delta(Epoch1900, Epoch1970))
	require.Equal(t, int64(-3155673600), Delta(Epoch1900, Epoch2000))
	require.Equal(t, int64(-946684800), Delta(Epoch1970, Epoch2000))
	require.Equal(t, int64(2208988800), Delta(Epoch1970, Epoch1900))
	require.Equal(t, int64(3155673600), Delta(Epoch2000, Epoch1900))
	require.Equal(t, int64(946684800), Delta(Epoch2000, Epoch1970))

	epochs := []Epoch{Epoch1900, Epoch1970, Epoch2000}
	for _, a := range epochs {
		for _, b := range epochs {
			require.Equal(t, int64(0), Delta(a, b)+Delta(b, a), "delta %s<->%s must be antisymmetric", a, b)
		}
		require.Equal(t, int64(0), Delta(a, a))
	}
	// The three constants must agree with each other
	require.Equal(t, Delta(Epoch1900, Epoch2000), Delta(Epoch1900, Epoch1970)+Delta(Epoch1970, Epoch2000))
}

func TestConvert(t *testing.T) {
	unix := Time{Sec: 946684800} // 2000-01-01T00:00:00Z in Unix seconds
	require.Equal(t, Time{Sec: 0}, Convert(unix, Epoch1970, Epoch2000))
	require.Equal(t, Time{Sec: 3155673600}, Convert(unix, Epoch1970, Epoch1900))
	require.Equal(t, unix, Convert(Convert(unix, Epoch1970, Epoch1900), Epoch1900, Epoch1970))
}

func TestIsLeap(t *testing.T) {
	require.True(t, IsLeap(2000))
	require.True(t, IsLeap(2024))
	require.False(t, IsLeap(1900))
	require.False(t, IsLeap(2023))
	require.False(t, IsLeap(2100))
	require.True(t, IsLeap(2400))
}

func TestDaysInMonth(t *testing.T) {
	require.Equal(t, 29, DaysInMonth(2024, February))
	require.Equal(t, 28, DaysInMonth(2023, February))
	require.Equal(t, 28, DaysInMonth(1900, February))
	require.Equal(t, 31, DaysInMonth(2023, December))
	require.Equal(t, 30, DaysInMonth(2023, April))
}

func TestWeekdayOf(t *testing.T) {
	require.Equal(t, Thursday, WeekdayOf(1970, January, 1))
	require.Equal(t, Monday, WeekdayOf(1900, January, 1))
	require.Equal(t, Saturday, WeekdayOf(2000, January, 1))
	require.Equal(t, Sunday, WeekdayOf(2024, March, 31))
	require.Equal(t, Sunday, WeekdayOf(2024, October, 27))
	require.Equal(t, Thursday, WeekdayOf(2024, February, 29))
}

func TestWeekdayAgainstStdlib(t *testing.T) {
	// Stdlib time is Sunday-based, ours is Monday-based
	for day := 0; day < 1000; day += 7 {
		d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day+day%11)
		want := (int(d.Weekday()) + 6) % 7
		require.Equal(t, Weekday(want), WeekdayOf(d.Year(), int(d.Month()), d.Day()), "weekday of %s", d)
	}
}

func TestWeekdayInMonth(t *testing.T) {
	// Last Sunday of March/October 2024 are the EU DST switch days
	require.Equal(t, 31, WeekdayInMonth(2024, March, WeekLast, Sunday))
	require.Equal(t, 27, WeekdayInMonth(2024, October, WeekLast, Sunday))

	require.Equal(t, 3, WeekdayInMonth(2024, March, WeekFirst, Sunday))
	require.Equal(t, 10, WeekdayInMonth(2024, March, WeekSecond, Sunday))

	// March 2024 has five Sundays, so fifth == last
	require.Equal(t, 31, WeekdayInMonth(2024, March, WeekFifth, Sunday))
	// April 2024 has only four Sundays; the fifth clamps to the last
	require.Equal(t, 28, WeekdayInMonth(2024, April, WeekFifth, Sunday))
}

func TestWeeksInMonth(t *testing.T) {
	// May 2021 starts on Saturday and ends on Monday: six partial weeks
	require.Equal(t,
		[][2]int{{1, 2}, {3, 9}, {10, 16}, {17, 23}, {24, 30}, {31, 31}},
		WeeksInMonth(2021, May))
	// February 2021 starts on Monday and has exactly four full weeks
	require.Equal(t,
		[][2]int{{1, 7}, {8, 14}, {15, 21}, {22, 28}},
		WeeksInMonth(2021, February))
}

func TestDateTimeRoundTrip(t *testing.T) {
	epochs := []Epoch{Epoch1900, Epoch1970, Epoch2000}
	for _, epoch := range epochs {
		start := time.Date(epoch.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		for day := 0; day < 60000; day += 97 {
			d := start.AddDate(0, 0, day).Add(11*time.Hour + 31*time.Minute + 17*time.Second)
			want := Date{
				Year:    d.Year(),
				Month:   int(d.Month()),
				Day:     d.Day(),
				Weekday: Weekday((int(d.Weekday()) + 6) % 7),
				Hour:    d.Hour(),
				Minute:  d.Minute(),
				Second:  d.Second(),
				Micro:   123456,
				YearDay: d.YearDay(),
			}
			ts := want.Time(epoch)
			require.Equal(t, want, DateOf(ts, epoch), "date of %s at epoch %s", d, epoch)
			require.Equal(t, ts, DateOf(ts, epoch).Time(epoch))
		}
	}
}

func TestDateOfKnownInstants(t *testing.T) {
	// 2000-01-01T00:00:00Z at every epoch
	require.Equal(t, 2000, DateOf(Time{}, Epoch2000).Year)
	require.Equal(t, 2000, DateOf(Time{Sec: 946684800}, Epoch1970).Year)
	require.Equal(t, 2000, DateOf(Time{Sec: 3155673600}, Epoch1900).Year)

	d := DateOf(Time{Sec: 951782400}, Epoch1970) // 2000-02-29T00:00:00Z
	require.Equal(t, Date{Year: 2000, Month: February, Day: 29, Weekday: Tuesday, YearDay: 60}, d)
}

func TestTimeNormalization(t *testing.T) {
	require.Equal(t, Time{Sec: 2, Micro: 500000}, FromMicros(2500000))
	require.Equal(t, Time{Sec: -3, Micro: 500000}, FromMicros(-2500000))
	require.Equal(t, int64(-2500000), FromMicros(-2500000).Micros())

	tm := Time{Sec: 1, Micro: 0}.AddMicros(1500000)
	require.Equal(t, Time{Sec: 2, Micro: 500000}, tm)
	require.Equal(t, int64(1500000), tm.Sub(Time{Sec: 1}))
	require.True(t, Time{Sec: 1}.Before(tm))
}
