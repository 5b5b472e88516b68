package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/coworking-map/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(_ *cobra.Command, _ []string) error {
		return writeConfig(os.Stdout, cfg)
	},
}

// writeConfig encodes c with secrets masked.
func writeConfig(w io.Writer, c *config.Config) error {
	masked := *c
	if masked.Geocode.GoogleAPIKey != "" {
		masked.Geocode.GoogleAPIKey = "********"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(masked); err != nil {
		return eris.Wrap(err, "config: encode yaml")
	}
	return eris.Wrap(enc.Close(), "config: encode yaml")
}

func init() {
	rootCmd.AddCommand(configCmd)
}
