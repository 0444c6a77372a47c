// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root configuration for both the server and client
// binaries; each binary only reads the sub-config relevant to it.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the tecnicofs-server process.
type ServerConfig struct {
	// SocketName is the filesystem path of the UNIX datagram socket
	// the server listens on.
	SocketName ResolvedPath `yaml:"socket-name"`

	// InodeCapacity bounds the number of inodes the in-memory tree
	// can ever hold, root included.
	InodeCapacity int `yaml:"inode-capacity"`

	// QueueCapacity bounds the number of commands buffered between
	// the socket-reading goroutine and the worker pool.
	QueueCapacity int `yaml:"queue-capacity"`

	// NumThreads is the number of normal-tier workers that execute
	// create/delete/lookup/move commands.
	NumThreads int `yaml:"num-threads"`

	// PriorityWorkers is the number of priority-tier workers reserved
	// for the print (dump) barrier, so a dump is never starved behind
	// a backlog of ordinary commands.
	PriorityWorkers int `yaml:"priority-workers"`

	// MaxMoveRetries bounds how many times move's deadlock-avoidance
	// loop will retry before giving up. Zero means unbounded.
	MaxMoveRetries int `yaml:"max-move-retries"`
}

// ClientConfig controls the tecnicofs-client batch driver.
type ClientConfig struct {
	// ServerSocketName is the path of the server's listening socket.
	ServerSocketName ResolvedPath `yaml:"server-socket-name"`

	// NumThreads is the number of goroutines the batch driver fans
	// commands out across.
	NumThreads int `yaml:"num-threads"`

	// InputFile and OutputFile name the batch command file to read and
	// the file the server dumps its final tree to. tecnicofs-client takes
	// both from its positional arguments and does not read these fields;
	// there is no stdin/stdout fallback.
	InputFile  ResolvedPath `yaml:"input-file"`
	OutputFile ResolvedPath `yaml:"output-file"`
}

// LoggingConfig controls the structured logger shared by both binaries.
type LoggingConfig struct {
	Severity  LogSeverity     `yaml:"severity"`
	Format    string          `yaml:"format"`
	FilePath  ResolvedPath    `yaml:"file-path"`
	LogRotate LogRotateConfig `yaml:"log-rotate"`
}

// BindServerFlags registers the tecnicofs-server command-line flags and
// binds them into viper, following the same IntP + BindPFlag idiom
// throughout. socket-name and num-threads are not flags: spec.md's
// CLI contract is the unchanged positional `numthreads socketname`, read
// directly by cmd/tecnicofs-server and written into ServerConfig; only
// the expanded knobs below are exposed as flags.
func BindServerFlags(flagSet *pflag.FlagSet) error {
	defaults := GetDefaultServerConfig()

	flagSet.IntP("inode-capacity", "i", defaults.InodeCapacity, "Maximum number of inodes the tree may hold.")
	if err := viper.BindPFlag("server.inode-capacity", flagSet.Lookup("inode-capacity")); err != nil {
		return err
	}

	flagSet.IntP("queue-capacity", "q", defaults.QueueCapacity, "Capacity of the bounded command queue.")
	if err := viper.BindPFlag("server.queue-capacity", flagSet.Lookup("queue-capacity")); err != nil {
		return err
	}

	flagSet.IntP("priority-workers", "p", defaults.PriorityWorkers, "Number of priority-tier worker goroutines reserved for dump requests.")
	if err := viper.BindPFlag("server.priority-workers", flagSet.Lookup("priority-workers")); err != nil {
		return err
	}

	flagSet.IntP("max-move-retries", "", defaults.MaxMoveRetries, "Maximum retries of move's deadlock-avoidance loop; 0 means unbounded.")
	if err := viper.BindPFlag("server.max-move-retries", flagSet.Lookup("max-move-retries")); err != nil {
		return err
	}

	return bindLoggingFlags(flagSet)
}

// BindClientFlags registers the tecnicofs-client command-line flags.
func BindClientFlags(flagSet *pflag.FlagSet) error {
	defaults := GetDefaultClientConfig()

	flagSet.StringP("server-socket-name", "s", string(defaults.ServerSocketName), "Path of the server's UNIX datagram socket.")
	if err := viper.BindPFlag("client.server-socket-name", flagSet.Lookup("server-socket-name")); err != nil {
		return err
	}

	flagSet.IntP("num-threads", "t", defaults.NumThreads, "Number of goroutines to fan batch commands out across.")
	if err := viper.BindPFlag("client.num-threads", flagSet.Lookup("num-threads")); err != nil {
		return err
	}

	flagSet.StringP("input-file", "i", "", "Batch command file to read.")
	if err := viper.BindPFlag("client.input-file", flagSet.Lookup("input-file")); err != nil {
		return err
	}

	flagSet.StringP("output-file", "o", "", "File the server dumps the final tree to.")
	if err := viper.BindPFlag("client.output-file", flagSet.Lookup("output-file")); err != nil {
		return err
	}

	return bindLoggingFlags(flagSet)
}

func bindLoggingFlags(flagSet *pflag.FlagSet) error {
	defaults := GetDefaultLoggingConfig()

	flagSet.StringP("log-severity", "", string(defaults.Severity), "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, or OFF.")
	if err := viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", defaults.Format, "Logging output format: text or json.")
	if err := viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to write logs to; empty means stderr.")
	if err := viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	return nil
}
