package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reconcile-cli/internal/extract"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Print the tokens and fingerprint of company names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := initNormalizer()
		if err != nil {
			return err
		}
		for _, raw := range args {
			name := n.Normalize(raw)
			if flagJSON {
				if err := writeJSON(os.Stdout, struct {
					Raw string `json:"raw"`
					normalizeResponse
				}{raw, normalizeResponse{Tokens: name.Tokens, Fingerprint: name.Fingerprint}}); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%s\n  tokens: [%s]\n  fingerprint: %s\n", raw, strings.Join(name.Tokens, " "), name.Fingerprint)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract contact details from text on stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		text, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return eris.Wrap(err, "extract: read stdin")
		}
		c := extract.Extract(string(text))
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), c)
		}
		out := cmd.OutOrStdout()
		for _, f := range extract.Fields() {
			if v := c.Get(f); v != "" {
				_, _ = fmt.Fprintf(out, "%s: %s\n", f, v)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd, extractCmd)
}
