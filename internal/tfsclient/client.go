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

// Package tfsclient is the client-side library for talking to a
// tecnicofs-server over its UNIX datagram wire protocol: Mount binds a
// private client socket and records the server's address, Create/
// Delete/Lookup/Move send one request line and parse the integer
// status reply, and Unmount tears the client socket back down.
package tfsclient

import (
	"fmt"
	"net"
	"os"
)

const maxReplySize = 4096

// Client is a mounted connection to a tecnicofs-server, bound to its
// own client-side UNIX datagram socket so the server's replies can be
// routed back to it.
type Client struct {
	conn             *net.UnixConn
	serverAddr       *net.UnixAddr
	clientSocketPath string
}

// Mount creates and binds a client-side UNIX datagram socket at
// clientSocketPath (removing any stale socket file left over from an
// unclean shutdown) and records serverSocketPath as the destination for
// requests.
func Mount(serverSocketPath, clientSocketPath string) (*Client, error) {
	_ = os.Remove(clientSocketPath)

	clientAddr, err := net.ResolveUnixAddr("unixgram", clientSocketPath)
	if err != nil {
		return nil, fmt.Errorf("tfsclient: resolving client socket path %q: %w", clientSocketPath, err)
	}
	conn, err := net.ListenUnixgram("unixgram", clientAddr)
	if err != nil {
		return nil, fmt.Errorf("tfsclient: binding client socket %q: %w", clientSocketPath, err)
	}

	serverAddr, err := net.ResolveUnixAddr("unixgram", serverSocketPath)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("tfsclient: resolving server socket path %q: %w", serverSocketPath, err)
	}

	return &Client{conn: conn, serverAddr: serverAddr, clientSocketPath: clientSocketPath}, nil
}

// Unmount closes the client socket and removes its socket file.
func (c *Client) Unmount() error {
	err := c.conn.Close()
	if rmErr := os.Remove(c.clientSocketPath); rmErr != nil && err == nil {
		err = fmt.Errorf("tfsclient: removing client socket path %q: %w", c.clientSocketPath, rmErr)
	}
	return err
}

// Create sends a "c <name> <kind>" request, kind being 'f' for file or
// 'd' for directory, and returns the status (0 on success, -1 on
// failure).
func (c *Client) Create(name string, kind byte) (int, error) {
	return c.roundTrip(fmt.Sprintf("c %s %c", name, kind))
}

// Delete sends a "d <path>" request.
func (c *Client) Delete(path string) (int, error) {
	return c.roundTrip(fmt.Sprintf("d %s", path))
}

// Lookup sends an "l <path>" request; the returned int is the resolved
// inumber on success, or -1 on failure.
func (c *Client) Lookup(path string) (int, error) {
	return c.roundTrip(fmt.Sprintf("l %s", path))
}

// Move sends an "m <from> <to>" request.
func (c *Client) Move(from, to string) (int, error) {
	return c.roundTrip(fmt.Sprintf("m %s %s", from, to))
}

// Print sends a "p <file>" request asking the server to dump its tree
// to the named file (a server-local path, not read by the client).
func (c *Client) Print(outputPath string) (int, error) {
	return c.roundTrip(fmt.Sprintf("p %s", outputPath))
}

func (c *Client) roundTrip(line string) (int, error) {
	if err := c.sendMessage(line); err != nil {
		return -1, err
	}
	return c.receiveMessage()
}

func (c *Client) sendMessage(line string) error {
	if _, err := c.conn.WriteToUnix([]byte(line), c.serverAddr); err != nil {
		return fmt.Errorf("tfsclient: sending message to server: %w", err)
	}
	return nil
}

func (c *Client) receiveMessage() (int, error) {
	buf := make([]byte, maxReplySize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return -1, fmt.Errorf("tfsclient: receiving message from server: %w", err)
	}

	var result int
	if _, err := fmt.Sscanf(string(buf[:n]), "%d", &result); err != nil {
		return -1, fmt.Errorf("tfsclient: parsing server reply %q: %w", buf[:n], err)
	}
	return result, nil
}
