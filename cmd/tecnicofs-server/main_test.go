// Copyright 2024 Google LLC
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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd_RequiresExactlyTwoPositionalArgs(t *testing.T) {
	root := newRootCmd()

	assert.Error(t, root.Args(root, nil))
	assert.Error(t, root.Args(root, []string{"8"}))
	assert.NoError(t, root.Args(root, []string{"8", "/tmp/tecnicofs-server.sock"}))
	assert.Error(t, root.Args(root, []string{"8", "/tmp/tecnicofs-server.sock", "extra"}))
}

func TestRunServer_RejectsNonNumericThreadCount(t *testing.T) {
	root := newRootCmd()
	err := runServer(root, []string{"not-a-number", "/tmp/tecnicofs-server.sock"})
	assert.ErrorContains(t, err, "invalid number of threads")
}

func TestRunServer_RejectsNonPositiveThreadCount(t *testing.T) {
	root := newRootCmd()
	err := runServer(root, []string{"0", "/tmp/tecnicofs-server.sock"})
	assert.ErrorContains(t, err, "invalid number of threads")
}
