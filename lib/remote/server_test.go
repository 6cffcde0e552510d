// Copyright 2026 The Turbo Translate Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// execHandler serves one exec request. It returns the exit status.
type execHandler func(command string, stdin io.Reader, stdout io.Writer) int

// testServer is a minimal SSH server that hands every exec request
// to a handler.
type testServer struct {
	address string
	hostKey ssh.PublicKey

	mu       sync.Mutex
	commands []string
}

func (s *testServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func startTestServer(t *testing.T, handler execHandler) *testServer {
	t.Helper()
	return startTestServerWithConfig(t, &ssh.ServerConfig{NoClientAuth: true}, handler)
}

// startTestServerWithConfig serves with config, which decides how
// clients authenticate. The host key is added here.
func startTestServerWithConfig(t *testing.T, config *ssh.ServerConfig, handler execHandler) *testServer {
	t.Helper()
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(privateKey)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := &testServer{address: listener.Addr().String(), hostKey: signer.PublicKey()}

	var group sync.WaitGroup
	group.Add(1)
	go func() {
		defer group.Done()
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			group.Add(1)
			go func() {
				defer group.Done()
				server.serveConnection(connection, config, handler)
			}()
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		group.Wait()
	})
	return server
}

func (s *testServer) serveConnection(connection net.Conn, config *ssh.ServerConfig, handler execHandler) {
	serverConnection, channels, requests, err := ssh.NewServerConn(connection, config)
	if err != nil {
		connection.Close()
		return
	}
	defer serverConnection.Close()
	go ssh.DiscardRequests(requests)

	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "only sessions")
			continue
		}
		channel, channelRequests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.serveSession(channel, channelRequests, handler)
	}
}

func (s *testServer) serveSession(channel ssh.Channel, requests <-chan *ssh.Request, handler execHandler) {
	defer channel.Close()
	for request := range requests {
		if request.Type != "exec" {
			request.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(request.Payload, &payload); err != nil {
			request.Reply(false, nil)
			return
		}
		request.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		status := handler(payload.Command, channel, channel)
		channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(status)}))
		return
	}
}
