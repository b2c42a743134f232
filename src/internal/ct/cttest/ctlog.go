// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cttest

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	ct "github.com/google/certificate-transparency-go"
	ctx509 "github.com/google/certificate-transparency-go/x509"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// FakeLog serves the RFC 6962 log API for a Log over httptest.
type FakeLog struct {
	*Log

	// URL is the log's base URL, suitable for a log list entry.
	URL string
	// BatchSize caps the entries returned by one get-entries call.
	BatchSize int
	// Now defaults to time.Now.
	Now func() time.Time

	Tree  Tree
	Roots []*x509.Certificate

	mu       sync.Mutex
	entries  []ct.LeafEntry
	requests map[string]int
	fail     atomic.Int32
}

// Serve starts a FakeLog for l. The server stops when the test ends.
func (l *Log) Serve(t testing.TB) *FakeLog {
	t.Helper()
	f := &FakeLog{Log: l, BatchSize: 2, requests: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+ct.AddChainPath, f.addChain(false))
	mux.HandleFunc("POST "+ct.AddPreChainPath, f.addChain(true))
	mux.HandleFunc("GET "+ct.GetSTHPath, f.getSTH)
	mux.HandleFunc("GET "+ct.GetSTHConsistencyPath, f.getConsistency)
	mux.HandleFunc("GET "+ct.GetProofByHashPath, f.getProofByHash)
	mux.HandleFunc("GET "+ct.GetEntriesPath, f.getEntries)
	mux.HandleFunc("GET "+ct.GetRootsPath, f.getRoots)
	mux.HandleFunc("GET "+ct.GetEntryAndProofPath, f.getEntryAndProof)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()
		if f.fail.Load() > 0 {
			f.fail.Add(-1)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	f.URL = srv.URL
	return f
}

// FailNext makes the next n requests answer 503.
func (f *FakeLog) FailNext(n int) { f.fail.Store(int32(n)) }

// Requests returns how many requests reached path.
func (f *FakeLog) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *FakeLog) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func queryUint(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
}

func (f *FakeLog) addChain(precert bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ct.AddChainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Chain) == 0 {
			http.Error(w, "bad chain", http.StatusBadRequest)
			return
		}

		entry, err := entryOf(req.Chain, precert)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s, err := f.sign(entry, f.now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		leaf, err := sct.LeafFor(s, entry).Marshal()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hash := sct.LeafHash(leaf)

		f.mu.Lock()
		f.entries = append(f.entries, ct.LeafEntry{LeafInput: leaf})
		f.Tree.Append(hash[:])
		f.mu.Unlock()

		sig, err := s.Signature.Marshal()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, ct.AddChainResponse{
			SCTVersion: ct.V1,
			ID:         s.LogID[:],
			Timestamp:  s.Timestamp,
			Signature:  sig,
		})
	}
}

func entryOf(chain [][]byte, precert bool) (sct.Entry, error) {
	if !precert {
		return sct.CertificateEntry(chain[0]), nil
	}
	if len(chain) < 2 {
		return sct.Entry{}, errors.New("precertificate chain lacks its issuer")
	}
	leaf, err := x509.ParseCertificate(chain[0])
	if err != nil {
		return sct.Entry{}, err
	}
	issuer, err := x509.ParseCertificate(chain[1])
	if err != nil {
		return sct.Entry{}, err
	}
	tbs, err := ctx509.BuildPrecertTBS(leaf.RawTBSCertificate, nil)
	if err != nil {
		return sct.Entry{}, err
	}
	return sct.PrecertificateEntry(x509certs.KeyHash(issuer), tbs), nil
}

func (f *FakeLog) getSTH(w http.ResponseWriter, _ *http.Request) {
	size := f.Tree.Size()
	root := f.Tree.Root(size)
	sth := ct.SignedTreeHead{
		Version:   ct.V1,
		TreeSize:  size,
		Timestamp: uint64(f.now().UnixMilli()),
	}
	copy(sth.SHA256RootHash[:], root)

	input, err := ct.SerializeSTHSignatureInput(sth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ds, err := f.signDigest(input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sig, err := ds.Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, ct.GetSTHResponse{
		TreeSize:          sth.TreeSize,
		Timestamp:         sth.Timestamp,
		SHA256RootHash:    root,
		TreeHeadSignature: sig,
	})
}

func (f *FakeLog) getConsistency(w http.ResponseWriter, r *http.Request) {
	first, err1 := queryUint(r, "first")
	second, err2 := queryUint(r, "second")
	if err1 != nil || err2 != nil || first > second || second > f.Tree.Size() {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}
	writeJSON(w, ct.GetSTHConsistencyResponse{Consistency: f.Tree.Consistency(first, second)})
}

func (f *FakeLog) getProofByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := base64.StdEncoding.DecodeString(r.URL.Query().Get("hash"))
	if err != nil {
		http.Error(w, "bad hash", http.StatusBadRequest)
		return
	}
	size, err := queryUint(r, "tree_size")
	if err != nil || size > f.Tree.Size() {
		http.Error(w, "bad tree size", http.StatusBadRequest)
		return
	}
	index, ok := f.Tree.Index(hash, size)
	if !ok {
		http.Error(w, "hash not found", http.StatusNotFound)
		return
	}
	writeJSON(w, ct.GetProofByHashResponse{
		LeafIndex: int64(index),
		AuditPath: f.Tree.AuditPath(index, size),
	})
}

func (f *FakeLog) getEntries(w http.ResponseWriter, r *http.Request) {
	start, err1 := queryUint(r, "start")
	end, err2 := queryUint(r, "end")

	f.mu.Lock()
	defer f.mu.Unlock()
	size := uint64(len(f.entries))
	if err1 != nil || err2 != nil || start > end || start >= size {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}
	end = min(end, size-1)
	if f.BatchSize > 0 {
		end = min(end, start+uint64(f.BatchSize)-1)
	}
	writeJSON(w, ct.GetEntriesResponse{Entries: f.entries[start : end+1]})
}

func (f *FakeLog) getRoots(w http.ResponseWriter, _ *http.Request) {
	var resp ct.GetRootsResponse
	for _, root := range f.Roots {
		resp.Certificates = append(resp.Certificates, base64.StdEncoding.EncodeToString(root.Raw))
	}
	writeJSON(w, resp)
}

func (f *FakeLog) getEntryAndProof(w http.ResponseWriter, r *http.Request) {
	index, err1 := queryUint(r, "leaf_index")
	size, err2 := queryUint(r, "tree_size")
	if err1 != nil || err2 != nil || index >= size || size > f.Tree.Size() {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	entry := f.entries[index]
	f.mu.Unlock()

	writeJSON(w, ct.GetEntryAndProofResponse{
		LeafInput: entry.LeafInput,
		ExtraData: entry.ExtraData,
		AuditPath: f.Tree.AuditPath(index, size),
	})
}
