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

// Command tecnicofs-server runs the in-memory filesystem as a UNIX
// datagram network service.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tecnicofs-project/tecnicofs/cfg"
	"github.com/tecnicofs-project/tecnicofs/cmd"
	"github.com/tecnicofs-project/tecnicofs/internal/logger"
	"github.com/tecnicofs-project/tecnicofs/internal/metrics"
	"github.com/tecnicofs-project/tecnicofs/internal/transport"
	"github.com/tecnicofs-project/tecnicofs/internal/tree"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tecnicofs-server numthreads socketname",
		Short: "Serve the in-memory tecnicofs tree over a UNIX datagram socket.",
		Args:  cobra.ExactArgs(2),
		RunE:  runServer,
	}
	cmd.BindConfigFileFlag(root)

	if err := cfg.BindServerFlags(root.Flags()); err != nil {
		panic(fmt.Sprintf("tecnicofs-server: binding flags: %v", err))
	}
	return root
}

func runServer(c *cobra.Command, args []string) error {
	cfgFile, err := c.Flags().GetString("config-file")
	if err != nil {
		cfgFile = ""
	}

	config, err := cmd.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	numThreads, err := strconv.Atoi(args[0])
	if err != nil || numThreads <= 0 {
		return fmt.Errorf("invalid number of threads %q: must be a positive integer", args[0])
	}
	config.Server.NumThreads = numThreads
	config.Server.SocketName = cfg.ResolvedPath("/tmp/" + args[1])

	if otelHandle, err := metrics.NewOTelHandle(); err != nil {
		logger.Warnf("tecnicofs-server: metrics disabled: %v", err)
	} else {
		metrics.SetHandle(otelHandle)
	}

	var opts []tree.Option
	if config.Server.MaxMoveRetries > 0 {
		opts = append(opts, tree.WithMaxMoveRetries(config.Server.MaxMoveRetries))
	}
	t := tree.New(config.Server.InodeCapacity, opts...)

	srv, err := transport.NewServer(
		string(config.Server.SocketName),
		t,
		config.Server.QueueCapacity,
		config.Server.NumThreads,
		config.Server.PriorityWorkers,
	)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	logger.Infof("tecnicofs-server: listening on %s", config.Server.SocketName)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
	case sig := <-sigCh:
		logger.Infof("tecnicofs-server: received %s, shutting down", sig)
	}

	return srv.Close()
}

func main() {
	cmd.RunOrExit(newRootCmd())
}
