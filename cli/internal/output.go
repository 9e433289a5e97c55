package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newTable returns a tabwriter with the CLI's column layout.
func newTable(w io.Writer, header string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, header)
	return tw
}

// wantJSON reports whether --output json was requested.
func wantJSON() bool {
	return outputFormat == "json"
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMessage prints a backend acknowledgement, or fallback when it is empty.
func printMessage(cmd *cobra.Command, msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}
