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

const (
	DefaultSocketName    = "/tmp/tecnicofs-server.sock"
	DefaultInodeCapacity = 50
	DefaultQueueCapacity = 100
	DefaultNumThreads    = 4
	DefaultPriorityWorkers = 1
)

// GetDefaultLoggingConfig returns the default configuration that is to be
// used during application startup, before any configuration file or flag
// has been parsed.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: InfoLogSeverity,
		Format:   "text",
		LogRotate: LogRotateConfig{
			BackupFileCount: 10,
			Compress:        true,
			MaxFileSizeMB:   512,
		},
	}
}

// GetDefaultServerConfig returns the default server-side configuration.
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		SocketName:      DefaultSocketName,
		InodeCapacity:   DefaultInodeCapacity,
		QueueCapacity:   DefaultQueueCapacity,
		NumThreads:      DefaultNumThreads,
		PriorityWorkers: DefaultPriorityWorkers,
		MaxMoveRetries:  0,
	}
}

// GetDefaultClientConfig returns the default client-side configuration.
func GetDefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerSocketName: DefaultSocketName,
		NumThreads:       1,
	}
}
