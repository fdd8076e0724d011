package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"search", "drafts", "contacted", "runs", "cache", "metros", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "prospect-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{"title", "similar", "company", "location", "max", "owner", "salesforce", "roster", "json"} {
		require.NotNil(t, searchCmd.Flags().Lookup(name), "search command should have --%s flag", name)
	}
	assert.Equal(t, "0", searchCmd.Flags().Lookup("max").DefValue)
	assert.Equal(t, "false", searchCmd.Flags().Lookup("salesforce").DefValue)
}

func TestDraftsCommand_Flags(t *testing.T) {
	for _, name := range []string{"in", "owner", "backend", "json"} {
		require.NotNil(t, draftsCmd.Flags().Lookup(name), "drafts command should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	watch := serveCmd.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "false", watch.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])

	limit := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestContactedCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range contactedCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["import"])
	assert.True(t, names["list"])
	require.NotNil(t, contactedCmd.PersistentFlags().Lookup("owner"))
}

func TestCacheCommand_HasPrune(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["prune"])
}
