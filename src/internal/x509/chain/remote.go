// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// FetchRemoteChain establishes a TLS connection to the target host and
// constructs a chain using the certificates presented during the handshake.
//
// The returned connection state carries what the server sent alongside
// the chain, namely SCTs from the TLS extension and a stapled OCSP
// response. Certificate verification is skipped, the caller decides trust.
//
// Parameters:
//   - ctx: Context for cancellation
//   - hostname: Server name, also sent as SNI
//   - port: TCP port, usually 443
//   - timeout: Dial and handshake timeout
//   - version: Application version for HTTP configuration
//
// Returns:
//   - *Chain: Chain holding the presented certificates, leaf first
//   - tls.ConnectionState: Handshake state including SCTs and the OCSP staple
//   - error: Error if the connection or handshake fails
func FetchRemoteChain(ctx context.Context, hostname string, port int, timeout time.Duration, version string) (*Chain, tls.ConnectionState, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName:         hostname,
			InsecureSkipVerify: true,
		},
	}

	addr := net.JoinHostPort(hostname, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, tls.ConnectionState{}, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, state, fmt.Errorf("no certificates received from %s", addr)
	}

	chain := New(state.PeerCertificates[0], version)
	chain.Certs = append(chain.Certs, state.PeerCertificates[1:]...)
	return chain, state, nil
}
