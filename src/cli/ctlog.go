// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/logclient"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/sct"
	x509certs "github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/x509/certs"
)

// ErrNoLogSelected indicates a log command without --log or --log-url.
var ErrNoLogSelected = errors.New("select a log with --log or with --log-url and --log-key")

// logSelector picks the CT log a command talks to.
type logSelector struct {
	name   string
	url    string
	keyPEM string
}

func (s *logSelector) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.name, "log", "", "log from the log list, by description or base64 log ID")
	flags.StringVar(&s.url, "log-url", "", "log base URL, used with --log-key")
	flags.StringVar(&s.keyPEM, "log-key", "", "PEM public key of the log at --log-url")
}

// client resolves the selected log and returns a client for it.
func (a *app) client(ctx context.Context, s *logSelector) (*logclient.Client, error) {
	var (
		server *loglist.LogServer
		err    error
	)
	switch {
	case s.url != "" && s.keyPEM != "":
		server, err = serverFromKey(s.url, s.keyPEM)
	case s.name != "":
		server, err = a.serverFromList(ctx, s.name)
	default:
		return nil, ErrNoLogSelected
	}
	if err != nil {
		return nil, err
	}
	return logclient.New(server, logclient.Config{HTTP: a.http})
}

func serverFromKey(url, keyFile string) (*loglist.LogServer, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read log key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("log key %s is not PEM", keyFile)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log key: %w", err)
	}
	return &loglist.LogServer{
		ID:          sha256.Sum256(block.Bytes),
		Key:         key,
		KeyDER:      block.Bytes,
		Description: url,
		URL:         url,
	}, nil
}

func (a *app) serverFromList(ctx context.Context, name string) (*loglist.LogServer, error) {
	list, err := a.loadLogList(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range list.Servers() {
		if s.IDBase64() == name || strings.EqualFold(s.Description, name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no trusted log named %q", name)
}

func (a *app) sthCommand() *cobra.Command {
	var (
		sel      logSelector
		prevSize uint64
		prevRoot string
	)
	cmd := &cobra.Command{
		Use:   "sth",
		Short: "Fetch and verify a log's signed tree head",
		Long: `Fetch and verify a log's signed tree head.

With --previous-size and --previous-root the new head is also proven
consistent with an earlier one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx, &sel)
			if err != nil {
				return err
			}
			head, err := c.STH(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tree size: %d\ntimestamp: %s\nroot hash: %s\n",
				head.TreeSize, head.Timestamp.Format(time.RFC3339), base64.StdEncoding.EncodeToString(head.RootHash[:]))

			if prevRoot == "" {
				return nil
			}
			root, err := base64.StdEncoding.DecodeString(prevRoot)
			if err != nil || len(root) != sha256.Size {
				return fmt.Errorf("--previous-root must be a base64 SHA-256 hash")
			}
			older := &logclient.TreeHead{TreeSize: prevSize}
			copy(older.RootHash[:], root)
			if err := c.Consistency(ctx, older, head); err != nil {
				return err
			}
			fmt.Fprintf(out, "consistent with tree size %d\n", prevSize)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().Uint64Var(&prevSize, "previous-size", 0, "size of an earlier tree head")
	cmd.Flags().StringVar(&prevRoot, "previous-root", "", "base64 root hash of an earlier tree head")
	return cmd
}

func (a *app) submitCommand() *cobra.Command {
	var (
		sel   logSelector
		prove bool
	)
	cmd := &cobra.Command{
		Use:   "submit CHAIN_FILE",
		Short: "Submit a certificate or precertificate chain to a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chain, err := decodeFile(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(ctx, &sel)
			if err != nil {
				return err
			}
			s, err := c.Submit(ctx, chain)
			if err != nil {
				return err
			}
			raw, err := s.Marshal()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "log id: %s\ntimestamp: %s\nsct: %s\n",
				s.LogIDBase64(), s.Time().Format(time.RFC3339), base64.StdEncoding.EncodeToString(raw))

			if !prove {
				return nil
			}
			head, err := c.STH(ctx)
			if err != nil {
				return err
			}
			index, err := c.Inclusion(ctx, s, sct.OriginTLSExtension, chain, head)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "included at index %d of tree size %d\n", index, head.TreeSize)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&prove, "prove", false, "prove inclusion in the current tree after submitting")
	return cmd
}

func (a *app) entriesCommand() *cobra.Command {
	var (
		sel        logSelector
		start, end uint64
		prove      bool
	)
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List a range of log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx, &sel)
			if err != nil {
				return err
			}

			table := tablewriter.NewTable(cmd.OutOrStdout())
			table.Header([]string{"Index", "Type", "Timestamp", "Subject"})
			add := func(index uint64, leaf *sct.MerkleTreeLeaf) error {
				table.Append([]string{
					strconv.FormatUint(index, 10),
					leaf.Entry.Type.String(),
					time.UnixMilli(int64(leaf.Timestamp)).UTC().Format(time.RFC3339),
					subjectOf(leaf.Entry),
				})
				return nil
			}

			if prove {
				err = provenEntries(ctx, c, start, end, add)
			} else {
				err = c.Entries(ctx, start, end, add)
			}
			table.Render()
			return err
		},
	}
	sel.register(cmd)
	cmd.Flags().Uint64Var(&start, "start", 0, "first entry index")
	cmd.Flags().Uint64Var(&end, "end", 0, "last entry index, inclusive")
	cmd.Flags().BoolVar(&prove, "prove", false, "fetch entries one by one with inclusion proofs against the current tree")
	return cmd
}

// provenEntries proves every leaf in [start, end] against one tree head.
func provenEntries(ctx context.Context, c *logclient.Client, start, end uint64, fn func(uint64, *sct.MerkleTreeLeaf) error) error {
	if end < start {
		return logclient.ErrBadRange
	}
	head, err := c.STH(ctx)
	if err != nil {
		return err
	}
	if end >= head.TreeSize {
		return fmt.Errorf("entry %d is beyond tree size %d", end, head.TreeSize)
	}
	for index := start; index <= end; index++ {
		leaf, err := c.Entry(ctx, index, head)
		if err != nil {
			return err
		}
		if err := fn(index, leaf); err != nil {
			return err
		}
	}
	return nil
}

func subjectOf(e sct.Entry) string {
	if e.Type != sct.X509Entry {
		return "-"
	}
	cert, err := x509.ParseCertificate(e.Certificate)
	if err != nil {
		return "unparsable"
	}
	return cert.Subject.String()
}

func (a *app) rootsCommand() *cobra.Command {
	var (
		sel   logSelector
		asPEM bool
	)
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the roots a log accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx, &sel)
			if err != nil {
				return err
			}
			roots, err := c.Roots(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asPEM {
				_, err := out.Write(x509certs.New().EncodeMultiplePEM(roots))
				return err
			}
			fmt.Fprintf(out, "%d accepted roots\n", len(roots))
			for _, r := range roots {
				fmt.Fprintln(out, r.Subject.String())
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&asPEM, "pem", false, "print the roots as a PEM bundle")
	return cmd
}
