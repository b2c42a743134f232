// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package loglist

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"time"
)

// LogServer is one trusted log.
type LogServer struct {
	// ID is SHA-256 of KeyDER, the log_id found in SCTs.
	ID [sha256.Size]byte
	// Key is the parsed public key, *ecdsa.PublicKey or *rsa.PublicKey.
	Key    crypto.PublicKey
	KeyDER []byte

	Description string
	URL         string
	Operator    string
	State       string
	MMD         time.Duration

	// ValidUntil is set for frozen and retired logs. SCTs issued after it
	// are not trusted.
	ValidUntil *time.Time
}

// IDBase64 returns the log ID in standard base64.
func (s *LogServer) IDBase64() string {
	return base64.StdEncoding.EncodeToString(s.ID[:])
}

// TrustedAt reports whether an SCT timestamped at t may be trusted.
func (s *LogServer) TrustedAt(t time.Time) bool {
	return s.ValidUntil == nil || !t.After(*s.ValidUntil)
}

// LogList maps log IDs to trusted logs.
type LogList struct {
	// Version is the list's declared version, empty for v1 lists.
	Version string
	// Timestamp is when the distributor produced the list, zero for v1 lists.
	Timestamp time.Time

	servers map[[sha256.Size]byte]*LogServer
}

// NewLogList builds a list from servers. Later duplicates replace earlier ones.
func NewLogList(servers ...*LogServer) *LogList {
	l := &LogList{servers: make(map[[sha256.Size]byte]*LogServer, len(servers))}
	for _, s := range servers {
		l.servers[s.ID] = s
	}
	return l
}

// Lookup returns the log with the given ID.
func (l *LogList) Lookup(id [sha256.Size]byte) (*LogServer, bool) {
	s, ok := l.servers[id]
	return s, ok
}

// Len returns the number of logs.
func (l *LogList) Len() int { return len(l.servers) }

// Servers returns the logs ordered by operator then description.
func (l *LogList) Servers() []*LogServer {
	out := make([]*LogServer, 0, len(l.servers))
	for _, s := range l.servers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Operator != out[j].Operator {
			return out[i].Operator < out[j].Operator
		}
		return out[i].Description < out[j].Description
	})
	return out
}

// RawResult is an unparsed log list with its detached signature.
type RawResult struct {
	JSON      []byte
	Signature []byte

	// set once the signature has been checked against the distributor key
	authenticated bool
}
