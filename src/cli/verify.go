// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/ctverify"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/revocation"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/verifier"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
	x509chain "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/chain"
)

type verifyOptions struct {
	file         string
	host         string
	fetchMissing bool
	checkCRL     bool
	checkOCSP    bool
	includeRoot  bool
	jsonOutput   bool
	tree         bool
	table        bool
}

func (a *app) verifyCommand() *cobra.Command {
	var o verifyOptions
	cmd := &cobra.Command{
		Use:   "verify [HOST[:PORT]]",
		Short: "Check that a server's certificate is publicly logged",
		Long: `Check that a server's certificate is publicly logged.

With a HOST the certificates, TLS extension SCTs and stapled OCSP response
are taken from a live handshake. With --file a certificate bundle is read
instead and --host names the server it belongs to.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && o.file == "" {
				return ErrInputRequired
			}
			return a.runVerify(cmd, args, &o)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.file, "file", "f", "", "certificate bundle to check instead of connecting")
	flags.StringVar(&o.host, "host", "", "host name for --file (default: leaf common name)")
	flags.BoolVar(&o.fetchMissing, "fetch-missing", false, "download missing issuers over AIA")
	flags.BoolVar(&o.checkCRL, "crl", false, "reject certificates listed on their issuer's CRL")
	flags.BoolVar(&o.checkOCSP, "ocsp", false, "ask the leaf's OCSP responder for its status and SCTs")
	flags.BoolVarP(&o.jsonOutput, "json", "j", false, "print the result as JSON")
	flags.BoolVarP(&o.includeRoot, "include-system", "s", false, "append the system root that anchors the chain")
	flags.BoolVarP(&o.tree, "tree", "t", false, "print the certificate chain as an ASCII tree")
	flags.BoolVar(&o.table, "table", false, "print the certificate chain as a markdown table")
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string, o *verifyOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	chain, state, err := a.connectionFor(ctx, args, o)
	if err != nil {
		return err
	}
	if o.fetchMissing {
		if err := chain.FetchCertificate(ctx); err != nil {
			a.log.Printf("Warning: could not complete the chain: %v", err)
		}
	}
	if o.includeRoot {
		if err := chain.AddRootCA(); err != nil {
			a.log.Printf("Warning: could not add the system root: %v", err)
		}
	}
	state.PeerCertificates = chain.Snapshot()

	revoked := revocation.NewList()
	a.checkRevocation(ctx, o, revoked, &state)

	v, err := a.verifier(ctverify.WithRevocationList(revoked))
	if err != nil {
		return err
	}
	r := v.CheckConnection(ctx, state)

	var statuses map[string]string
	if o.checkCRL || o.checkOCSP {
		statuses = revocationStatuses(revoked, state.PeerCertificates)
	}

	out := cmd.OutOrStdout()
	if o.tree {
		fmt.Fprint(out, chain.RenderASCIITree(statuses))
	}
	if o.table {
		fmt.Fprint(out, chain.RenderTable(statuses))
	}
	if o.jsonOutput {
		viz, err := chain.ToVisualizationJSON(statuses)
		if err != nil {
			return err
		}
		if err := writeJSONResult(out, state.ServerName, r, viz); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "chain: %d certificates, %d intermediates\n",
			len(state.PeerCertificates), len(chain.FilterIntermediates()))
		writeResult(out, state.ServerName, r)
	}

	if f, ok := r.(ctverify.Failure); ok {
		return &ctverify.VerificationError{Host: state.ServerName, Result: f}
	}
	return nil
}

// connectionFor returns the chain to check and the connection state
// carrying its out-of-band SCTs.
func (a *app) connectionFor(ctx context.Context, args []string, o *verifyOptions) (*x509chain.Chain, tls.ConnectionState, error) {
	if o.file != "" {
		certs, err := decodeFile(o.file)
		if err != nil {
			return nil, tls.ConnectionState{}, err
		}
		chain := x509chain.New(certs[0], a.version)
		chain.Certs = append(chain.Certs, certs[1:]...)
		chain.HTTPConfig = a.http

		host := o.host
		if host == "" {
			host = certs[0].Subject.CommonName
		}
		return chain, tls.ConnectionState{ServerName: host}, nil
	}

	host, port, err := splitHostPort(args[0])
	if err != nil {
		return nil, tls.ConnectionState{}, err
	}
	chain, state, err := x509chain.FetchRemoteChain(ctx, host, port, a.timeout(), a.version)
	if err != nil {
		return nil, tls.ConnectionState{}, err
	}
	chain.HTTPConfig = a.http
	state.ServerName = host
	return chain, state, nil
}

func splitHostPort(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 443, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", target)
	}
	return host, port, nil
}

// checkRevocation fills revoked from CRLs and OCSP as requested. A stapled
// OCSP response is kept; a fetched one is used for SCTs when none was stapled.
func (a *app) checkRevocation(ctx context.Context, o *verifyOptions, revoked *revocation.List, state *tls.ConnectionState) {
	chain := state.PeerCertificates
	if o.checkCRL {
		cache := revocation.NewCRLCache(revocation.DefaultCRLCacheConfig, metrics.Default)
		fetcher := &revocation.Fetcher{HTTP: a.http, Cache: cache}
		if _, err := fetcher.ImportChain(ctx, revoked, chain); err != nil {
			a.log.Printf("Warning: CRL check incomplete: %v", err)
		}
		a.slog.Debug(cache.Stats())
	}
	if o.checkOCSP && len(chain) > 1 {
		resp, raw, err := revocation.FetchOCSP(ctx, a.http, chain[0], chain[1])
		if err != nil {
			a.log.Printf("Warning: OCSP check failed: %v", err)
			return
		}
		revoked.ImportOCSP(chain[0], resp)
		if len(state.OCSPResponse) == 0 {
			state.OCSPResponse = raw
		}
	}
}

// revocationStatuses keys each certificate's serial to good or revoked, as
// the chain renderers expect.
func revocationStatuses(revoked *revocation.List, chain []*x509.Certificate) map[string]string {
	statuses := make(map[string]string, len(chain))
	for _, cert := range chain {
		status := "good"
		if revoked.Contains(cert) {
			status = "revoked"
		}
		statuses[cert.SerialNumber.String()] = status
	}
	return statuses
}

func writeResult(w io.Writer, host string, r ctverify.Result) {
	fmt.Fprintf(w, "%s: %s\n", host, r.Kind())

	var results []verifier.Result
	switch r := r.(type) {
	case ctverify.Trusted:
		fmt.Fprintf(w, "valid SCTs: %d, required: %d\n", r.Valid, r.Required)
		results = r.SCTs
	case ctverify.TooFewSCTs:
		fmt.Fprintf(w, "valid SCTs: %d, required: %d\n", r.Found, r.Required)
		results = r.SCTs
	case ctverify.Failure:
		fmt.Fprintf(w, "reason: %v\n", r)
	}
	if len(results) == 0 {
		return
	}

	table := tablewriter.NewTable(w)
	table.Header([]string{"#", "Result", "Log", "Timestamp"})
	for i, res := range results {
		row := []string{strconv.Itoa(i + 1), res.Kind(), "-", "-"}
		if v, ok := res.(verifier.Valid); ok {
			row[2] = v.Log.Description
			row[3] = v.SCT.Time().Format(time.RFC3339)
		} else if err, ok := res.(error); ok {
			row[2] = err.Error()
		}
		table.Append(row)
	}
	table.Render()
}

type jsonSCT struct {
	Result    string    `json:"result"`
	Log       string    `json:"log,omitempty"`
	LogID     string    `json:"logId,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type jsonResult struct {
	Host     string    `json:"host"`
	Result   string    `json:"result"`
	Valid    int       `json:"valid"`
	Required int       `json:"required,omitempty"`
	Error    string    `json:"error,omitempty"`
	SCTs     []jsonSCT `json:"scts,omitempty"`

	Chain json.RawMessage `json:"chain,omitempty"`
}

func writeJSONResult(w io.Writer, host string, r ctverify.Result, chain []byte) error {
	out := jsonResult{Host: host, Result: r.Kind(), Chain: chain}

	var results []verifier.Result
	switch r := r.(type) {
	case ctverify.Trusted:
		out.Valid, out.Required, results = r.Valid, r.Required, r.SCTs
	case ctverify.TooFewSCTs:
		out.Valid, out.Required, results = r.Found, r.Required, r.SCTs
	}
	if f, ok := r.(ctverify.Failure); ok {
		out.Error = f.Error()
	}

	for _, res := range results {
		s := jsonSCT{Result: res.Kind()}
		if v, ok := res.(verifier.Valid); ok {
			s.Log = v.Log.Description
			s.LogID = v.Log.IDBase64()
			ts := v.SCT.Time()
			s.Timestamp = &ts
		} else if err, ok := res.(error); ok {
			s.Error = err.Error()
		}
		out.SCTs = append(out.SCTs, s)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
