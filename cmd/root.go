package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/config"
)

var cfg *config.Config

// Persistent flags shared by the CRM commands.
var (
	flagJSON      bool
	flagLimit     int
	flagDryRun    bool
	flagOverwrite bool
	flagStatus    string
	flagSource    string
)

var rootCmd = &cobra.Command{
	Use:   "reconcile-cli",
	Short: "Reconcile CRM records against a company export",
	Long: "Matches CRM records to rows of a CSV or XLSX export by company name, " +
		"back-fills empty CRM fields from matched rows and from record comments, " +
		"and reclassifies record types.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyFlagOverrides lets explicitly set flags win over file and env config.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("status") {
		c.CRM.Status = flagStatus
	}
	if cmd.Flags().Changed("source") {
		c.Source.Path = flagSource
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "print machine-readable JSON")
	pf.IntVar(&flagLimit, "limit", 0, "process at most N records (0 = all)")
	pf.BoolVar(&flagDryRun, "dry-run", false, "log planned writes without sending them")
	pf.BoolVar(&flagOverwrite, "overwrite", false, "write fields that already hold a value")
	pf.StringVar(&flagStatus, "status", "Engaged", "CRM status to process (default from config)")
	pf.StringVar(&flagSource, "source", "", "export path or http(s)/ftp URL (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
