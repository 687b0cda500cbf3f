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

// Epoch identifies one of the three fixed reference instants a timestamp
// can count from.
type Epoch int

// Supported epochs. NTP counts from 1900, Unix from 1970, most RTC chips
// and embedded runtimes from 2000.
const (
	Epoch1900 Epoch = iota
	Epoch1970
	Epoch2000
)

// Seconds between the epoch pairs.
const (
	SecondsBetween1900And1970 = int64(2208988800)
	SecondsBetween1900And2000 = int64(3155673600)
	SecondsBetween1970And2000 = int64(946684800)
)

// Row = from, column = to.
var epochDeltas = [3][3]int64{
	{0, -SecondsBetween1900And1970, -SecondsBetween1900And2000},
	{SecondsBetween1900And1970, 0, -SecondsBetween1970And2000},
	{SecondsBetween1900And2000, SecondsBetween1970And2000, 0},
}

// Days from 1970-01-01 to each epoch's base day.
var epochDays = [3]int64{-25567, 0, 10957}

// Valid reports whether e is one of the three supported epochs.
func (e Epoch) Valid() bool {
	return e >= Epoch1900 && e <= Epoch2000
}

// Year returns the base year of the epoch.
func (e Epoch) Year() int {
	switch e {
	case Epoch1900:
		return 1900
	case Epoch2000:
		return 2000
	}
	return 1970
}

func (e Epoch) String() string {
	switch e {
	case Epoch1900:
		return "1900"
	case Epoch1970:
		return "1970"
	case Epoch2000:
		return "2000"
	}
	return "UNSUPPORTED"
}

// Delta returns the signed number of seconds to add to a timestamp counted
// from one epoch to re-express it against to the other:
//
//	toEpochTime = fromEpochTime + Delta(from, to)
//
// Delta(a, b) == -Delta(b, a) and Delta(a, a) == 0 for every supported pair.
// Both epochs must be valid.
func Delta(from, to Epoch) int64 {
	return epochDeltas[from][to]
}

// Convert re-expresses t, counted from one epoch, against another epoch.
func Convert(t Time, from, to Epoch) Time {
	t.Sec += Delta(from, to)
	return t
}
