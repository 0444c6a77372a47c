// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_AfterFiresAfterDuration(t *testing.T) {
	var c Clock = RealClock{}
	start := time.Now()
	<-c.After(time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestFakeClock_AfterFiresAfterWaitTime(t *testing.T) {
	var c Clock = &FakeClock{WaitTime: time.Millisecond}
	start := time.Now()
	<-c.After(time.Hour)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}
