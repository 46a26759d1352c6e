// Package schema handles inspecting the loaded schemas
package schema

import (
	"fmt"
	"io"

	"fjacquet/hbci-codec/cmd/root"
	hbcischema "fjacquet/hbci-codec/pkg/schema"

	"github.com/spf13/cobra"
)

// Cmd represents the schema command
var Cmd = &cobra.Command{
	Use:   "schema [version]",
	Short: "List loaded schema versions and their message types",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var versions []string
		if len(args) == 1 {
			versions = args
		}
		return List(cmd.OutOrStdout(), root.AppContainer.GetRegistry(), versions)
	},
}

// List writes each version followed by its message types. Without versions
// every registered version is listed.
func List(w io.Writer, reg *hbcischema.Registry, versions []string) error {
	if len(versions) == 0 {
		versions = reg.Versions()
	}
	for _, v := range versions {
		s, err := reg.Get(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s (%d types)\n", s.Version(), s.Len()); err != nil {
			return err
		}
		for _, m := range s.Messages() {
			if _, err := fmt.Fprintf(w, "  %s\n", m); err != nil {
				return err
			}
		}
	}
	return nil
}
