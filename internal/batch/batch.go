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

// Package batch implements the batch-client driver: it reads a file of
// commands, fans them out across a fixed number of worker goroutines
// each mounted against the server over its own tfsclient.Client, and
// finally asks the server to dump its tree to the output file.
package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tecnicofs-project/tecnicofs/internal/logger"
	"github.com/tecnicofs-project/tecnicofs/internal/tfsclient"
)

// Result is the outcome of a single non-print command read from the
// input file, in the order Run parsed it.
type Result struct {
	Line   string
	Status int
	Err    error
}

// Stats summarises a batch run.
type Stats struct {
	Commands []Result
	Duration time.Duration
}

// Run reads inputPath line by line (blank lines and lines starting
// with '#' are skipped, mirroring the original batch parser), fans the
// create/delete/lookup/move commands out across numThreads worker
// goroutines each mounted against serverSocketPath with its own
// client socket, waits for every command to complete, and then issues
// a single print request so the server dumps its final tree state to
// outputPath.
func Run(serverSocketPath, inputPath, outputPath string, numThreads int) (Stats, error) {
	if numThreads <= 0 {
		return Stats{}, fmt.Errorf("batch: numThreads must be positive, got %d", numThreads)
	}

	lines, err := readCommands(inputPath)
	if err != nil {
		return Stats{}, err
	}

	start := time.Now()

	jobs := make(chan job, len(lines))
	results := make([]Result, len(lines))
	for i, line := range lines {
		jobs <- job{index: i, line: line}
	}
	close(jobs)

	var g errgroup.Group
	for w := 0; w < numThreads; w++ {
		workerID := w
		g.Go(func() error {
			clientSocket := filepath.Join(os.TempDir(), fmt.Sprintf("tfs-batch-%s.sock", uuid.NewString()))
			c, err := tfsclient.Mount(serverSocketPath, clientSocket)
			if err != nil {
				return fmt.Errorf("batch: mounting worker %d: %w", workerID, err)
			}
			defer c.Unmount()

			for j := range jobs {
				status, err := applyCommand(c, j.line)
				results[j.index] = Result{Line: j.line, Status: status, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	printSocket := filepath.Join(os.TempDir(), fmt.Sprintf("tfs-batch-print-%s.sock", uuid.NewString()))
	printClient, err := tfsclient.Mount(serverSocketPath, printSocket)
	if err != nil {
		return Stats{}, fmt.Errorf("batch: mounting print client: %w", err)
	}
	defer printClient.Unmount()

	if status, err := printClient.Print(outputPath); err != nil || status != 0 {
		return Stats{}, fmt.Errorf("batch: dumping tree to %q: status=%d err=%v", outputPath, status, err)
	}

	return Stats{Commands: results, Duration: time.Since(start)}, nil
}

type job struct {
	index int
	line  string
}

func readCommands(inputPath string) ([]string, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("batch: opening input file %q: %w", inputPath, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := parseOpcode(line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("batch: reading input file %q: %w", inputPath, err)
	}
	return lines, nil
}

func parseOpcode(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", fmt.Errorf("batch: empty command")
	}
	switch fields[0] {
	case "c":
		if len(fields) != 3 {
			return "", fmt.Errorf("batch: malformed create command %q", line)
		}
	case "d", "l":
		if len(fields) != 2 {
			return "", fmt.Errorf("batch: malformed command %q", line)
		}
	case "m":
		if len(fields) != 3 {
			return "", fmt.Errorf("batch: malformed move command %q", line)
		}
	default:
		return "", fmt.Errorf("batch: unknown opcode in command %q", line)
	}
	return fields[0], nil
}

func applyCommand(c *tfsclient.Client, line string) (int, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "c":
		name, kind := fields[1], fields[2]
		logger.Infof("batch: create %s: %s", kind, name)
		return c.Create(name, kind[0])
	case "l":
		name := fields[1]
		status, err := c.Lookup(name)
		if err == nil {
			if status >= 0 {
				logger.Infof("batch: search %s found", name)
			} else {
				logger.Infof("batch: search %s not found", name)
			}
		}
		return status, err
	case "d":
		name := fields[1]
		logger.Infof("batch: delete %s", name)
		return c.Delete(name)
	case "m":
		src, dst := fields[1], fields[2]
		logger.Infof("batch: move %s to %s", src, dst)
		return c.Move(src, dst)
	default:
		return -1, fmt.Errorf("batch: unknown opcode in command %q", line)
	}
}
