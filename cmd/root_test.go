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

	expected := []string{"scrape", "clean", "show", "search", "geocode", "map", "export", "serve", "config", "runs", "cache"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "coworking-map", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestMapCommand_Flags(t *testing.T) {
	flag := mapCmd.Flags().Lookup("search")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.NotNil(t, mapCmd.Flags().Lookup("out"))
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "xlsx", flag.DefValue)
	assert.Equal(t, "clean", exportCmd.Flags().Lookup("dataset").DefValue)
}

func TestShowCommand_Args(t *testing.T) {
	assert.Error(t, showCmd.Args(showCmd, nil))
	assert.NoError(t, showCmd.Args(showCmd, []string{"clean"}))
}

func TestSearchCommand_Args(t *testing.T) {
	assert.NoError(t, searchCmd.Args(searchCmd, nil))
	assert.NoError(t, searchCmd.Args(searchCmd, []string{"paris"}))
	assert.Error(t, searchCmd.Args(searchCmd, []string{"a", "b"}))
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
	assert.Equal(t, "50", runsListCmd.Flags().Lookup("limit").DefValue)
}
