// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/ct/loglist"
)

func (a *app) logListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "loglist",
		Short: "Download, verify and print the trusted log list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.loadLogList(cmd.Context())
			if err != nil {
				return err
			}
			writeLogList(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

// loadLogList fetches the log list through the verifier's cache chain.
func (a *app) loadLogList(ctx context.Context) (*loglist.LogList, error) {
	v, err := a.verifier()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()

	switch r := v.LogList(ctx).(type) {
	case loglist.Valid:
		return r.List, nil
	case loglist.Invalid:
		return nil, r
	default:
		return nil, fmt.Errorf("unexpected log list result %T", r)
	}
}

func writeLogList(w io.Writer, list *loglist.LogList) {
	if list.Version != "" {
		fmt.Fprintf(w, "log list version %s, published %s\n", list.Version, list.Timestamp.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "%d trusted logs\n", list.Len())

	table := tablewriter.NewTable(w)
	table.Header([]string{"Operator", "Description", "State", "Log ID", "URL"})
	for _, s := range list.Servers() {
		state := s.State
		if s.ValidUntil != nil {
			state += " until " + s.ValidUntil.Format(time.DateOnly)
		}
		table.Append([]string{s.Operator, s.Description, state, s.IDBase64(), s.URL})
	}
	table.Render()
}
