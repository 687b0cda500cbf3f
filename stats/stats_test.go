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

package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	c := &Counters{}

	c.IncRequests()
	c.IncRequests()
	c.IncInvalidFormat()
	c.IncFailures()
	c.IncSync()
	c.IncDriftCalculate()
	c.IncDriftCompensate()

	require.Equal(t, map[string]int64{
		"ntp.requests":      2,
		"ntp.invalidformat": 1,
		"ntp.failures":      1,
		"sync":              1,
		"drift.calculate":   1,
		"drift.compensate":  1,
	}, c.Snapshot())
}
