//go:build !integration

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reconcile-cli/internal/config"
)

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"match", "sync-csv", "sync-comments", "task-types", "list", "fields", "runs", "normalize", "extract", "serve"} {
		assert.True(t, names[want], want)
	}
}

func TestPersistentFlags(t *testing.T) {
	pf := rootCmd.PersistentFlags()
	for _, name := range []string{"json", "limit", "dry-run", "overwrite", "status", "source"} {
		assert.NotNil(t, pf.Lookup(name), name)
	}
	assert.Equal(t, "Engaged", pf.Lookup("status").DefValue)
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&flagStatus, "status", "Engaged", "")
	cmd.Flags().StringVar(&flagSource, "source", "", "")

	c := &config.Config{}
	c.CRM.Status = "Active"
	c.Source.Path = "data/brewery_data.csv"

	applyFlagOverrides(cmd, c)
	assert.Equal(t, "Active", c.CRM.Status)
	assert.Equal(t, "data/brewery_data.csv", c.Source.Path)

	require.NoError(t, cmd.Flags().Set("status", "Lead"))
	require.NoError(t, cmd.Flags().Set("source", "https://example.com/export.xlsx"))
	applyFlagOverrides(cmd, c)
	assert.Equal(t, "Lead", c.CRM.Status)
	assert.Equal(t, "https://example.com/export.xlsx", c.Source.Path)
}

func TestExtractCommand(t *testing.T) {
	var out bytes.Buffer
	extractCmd.SetIn(strings.NewReader("Contact: Jane Doe\nEmail: JANE@Example.com\nTitle: Owner\n"))
	extractCmd.SetOut(&out)
	t.Cleanup(func() {
		extractCmd.SetIn(nil)
		extractCmd.SetOut(nil)
	})

	require.NoError(t, extractCmd.RunE(extractCmd, nil))
	assert.Contains(t, out.String(), "name: Jane Doe")
	assert.Contains(t, out.String(), "email: JANE@Example.com")
	assert.Contains(t, out.String(), "title: Owner")
}

func TestReconcileOptions(t *testing.T) {
	cfg = &config.Config{}
	cfg.CRM.Status = "Engaged"
	cfg.CRM.Concurrency = 6
	flagLimit, flagDryRun, flagOverwrite = 5, true, false
	t.Cleanup(func() { cfg, flagLimit, flagDryRun = nil, 0, false })

	o := reconcileOptions()
	assert.Equal(t, "Engaged", o.Status)
	assert.Equal(t, 5, o.Limit)
	assert.Equal(t, 6, o.Concurrency)
	assert.True(t, o.DryRun)
	assert.False(t, o.Overwrite)
}

func TestInitSource_Unsupported(t *testing.T) {
	cfg = &config.Config{}
	cfg.CRM.Provider = "hubspot"
	t.Cleanup(func() { cfg = nil })

	_, err := initSource()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported crm provider")
}

func TestInitSource_ClickUp(t *testing.T) {
	cfg = &config.Config{}
	cfg.CRM.Provider = "clickup"
	cfg.ClickUp.Token = "pk_test"
	cfg.ClickUp.ListID = "901"
	t.Cleanup(func() { cfg = nil })

	src, err := initSource()
	require.NoError(t, err)
	assert.NotNil(t, src)
}
