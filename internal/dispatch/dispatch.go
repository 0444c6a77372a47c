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

// Package dispatch parses one wire-protocol line into a queue.Command
// and executes it against a tree.Tree, producing the status string the
// transport layer writes back to the client.
package dispatch

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tecnicofs-project/tecnicofs/internal/logger"
	"github.com/tecnicofs-project/tecnicofs/internal/metrics"
	"github.com/tecnicofs-project/tecnicofs/internal/queue"
	"github.com/tecnicofs-project/tecnicofs/internal/tree"
)

// StatusOK and StatusFail are the two ASCII status lines clients
// receive for every opcode except lookup, which instead replies with
// the resolved inumber on success.
const (
	StatusOK   = "0"
	StatusFail = "-1"
)

// IsPrint reports whether opcode is the dump barrier command, so the
// transport layer can route it to the priority worker tier instead of
// the normal tier.
func IsPrint(opcode string) bool { return opcode == "p" }

// Parse splits one command line into a queue.Command. Malformed lines
// (unknown opcode, wrong argument count) return an error; the caller
// replies StatusFail and keeps serving.
func Parse(line string) (queue.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return queue.Command{}, fmt.Errorf("dispatch: empty command")
	}

	opcode, args := fields[0], fields[1:]
	var wantArgs int
	switch opcode {
	case "c":
		wantArgs = 2
	case "d", "l", "p":
		wantArgs = 1
	case "m":
		wantArgs = 2
	default:
		return queue.Command{}, fmt.Errorf("dispatch: unknown opcode %q", opcode)
	}
	if len(args) != wantArgs {
		return queue.Command{}, fmt.Errorf("dispatch: opcode %q wants %d args, got %d", opcode, wantArgs, len(args))
	}

	return queue.Command{Opcode: opcode, Args: args}, nil
}

// opNames labels each opcode for the metrics recorded around it,
// mirroring FSOpKey in otel_metrics.go (there: open/read/write/...;
// here: tecnicofs's own create/delete/lookup/move/print).
var opNames = map[string]string{
	"c": "create",
	"d": "delete",
	"l": "lookup",
	"m": "move",
	"p": "print",
}

// Execute runs cmd against t and returns the ASCII status line to send
// back to the client. The transport routes p (dump) to its priority
// tier, which calls ExecutePrint inside the print barrier; a p command
// passed to Execute is still carried out through ExecutePrint, but
// without that barrier. Every call records an ops-count/
// latency/error-count measurement, keyed by opcode, through the
// package-level metrics handle.
func Execute(t *tree.Tree, cmd queue.Command) string {
	start := time.Now()
	status, err := executeOpcode(t, cmd)

	op, ok := opNames[cmd.Opcode]
	if !ok {
		op = cmd.Opcode
	}
	metrics.RecordOp(context.Background(), op, start, err)
	return status
}

func executeOpcode(t *tree.Tree, cmd queue.Command) (string, error) {
	switch cmd.Opcode {
	case "c":
		return executeCreate(t, cmd.Args[0], cmd.Args[1])
	case "d":
		if err := t.Delete(cmd.Args[0]); err != nil {
			logger.Debugf("delete %s failed: %v", cmd.Args[0], err)
			return StatusFail, err
		}
		return StatusOK, nil
	case "l":
		inumber, err := t.Lookup(cmd.Args[0])
		if err != nil {
			logger.Debugf("lookup %s failed: %v", cmd.Args[0], err)
			return StatusFail, err
		}
		return strconv.Itoa(inumber), nil
	case "m":
		if err := t.Move(cmd.Args[0], cmd.Args[1]); err != nil {
			logger.Debugf("move %s to %s failed: %v", cmd.Args[0], cmd.Args[1], err)
			return StatusFail, err
		}
		return StatusOK, nil
	case "p":
		status := ExecutePrint(t, cmd.Args[0])
		if status == StatusFail {
			return status, fmt.Errorf("dispatch: print %s failed", cmd.Args[0])
		}
		return status, nil
	default:
		return StatusFail, fmt.Errorf("dispatch: unknown opcode %q", cmd.Opcode)
	}
}

func executeCreate(t *tree.Tree, path, kindLetter string) (string, error) {
	kind, err := parseKind(kindLetter)
	if err != nil {
		logger.Debugf("create %s failed: %v", path, err)
		return StatusFail, err
	}
	if err := t.Create(path, kind); err != nil {
		logger.Debugf("create %s failed: %v", path, err)
		return StatusFail, err
	}
	return StatusOK, nil
}

func parseKind(letter string) (tree.Kind, error) {
	switch letter {
	case "f":
		return tree.KindFile, nil
	case "d":
		return tree.KindDirectory, nil
	default:
		return 0, fmt.Errorf("dispatch: invalid kind %q, want f or d", letter)
	}
}

// ExecutePrint dumps t's tree to the file named by path and returns the
// status line. Callers run this only once every other worker is
// confirmed idle, per the print barrier protocol.
func ExecutePrint(t *tree.Tree, path string) string {
	f, err := os.Create(path)
	if err != nil {
		logger.Errorf("print %s: creating output file: %v", path, err)
		return StatusFail
	}
	defer f.Close()

	if err := t.Dump(f); err != nil {
		logger.Errorf("print %s: dumping tree: %v", path, err)
		return StatusFail
	}
	return StatusOK
}
