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

// Command tecnicofs-client runs a batch of filesystem commands against
// a tecnicofs-server, fanning them out across a fixed number of
// goroutines and dumping the server's final tree to the output file.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tecnicofs-project/tecnicofs/cfg"
	"github.com/tecnicofs-project/tecnicofs/cmd"
	"github.com/tecnicofs-project/tecnicofs/internal/batch"
	"github.com/tecnicofs-project/tecnicofs/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tecnicofs-client inputfile outputfile numthreads",
		Short: "Run a batch of filesystem commands against a tecnicofs-server.",
		Args:  cobra.ExactArgs(3),
		RunE:  runClient,
	}
	cmd.BindConfigFileFlag(root)

	if err := cfg.BindClientFlags(root.Flags()); err != nil {
		panic(fmt.Sprintf("tecnicofs-client: binding flags: %v", err))
	}
	return root
}

func runClient(c *cobra.Command, args []string) error {
	cfgFile, err := c.Flags().GetString("config-file")
	if err != nil {
		cfgFile = ""
	}

	config, err := cmd.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	inputFile, outputFile := args[0], args[1]
	numThreads, err := strconv.Atoi(args[2])
	if err != nil || numThreads <= 0 {
		return fmt.Errorf("invalid number of threads %q: must be a positive integer", args[2])
	}

	stats, err := batch.Run(string(config.Client.ServerSocketName), inputFile, outputFile, numThreads)
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	var failed int
	for _, r := range stats.Commands {
		if r.Err != nil {
			failed++
		}
	}
	logger.Infof("tecnicofs-client: applied %d commands (%d failed)", len(stats.Commands), failed)
	fmt.Printf("TecnicoFS completed in %0.4f seconds.\n", stats.Duration.Seconds())
	return nil
}

func main() {
	cmd.RunOrExit(newRootCmd())
}
