// Package generate handles building wire messages from path/value pairs
package generate

import (
	"fjacquet/hbci-codec/cmd/common"
	"fjacquet/hbci-codec/cmd/root"

	"github.com/spf13/cobra"
)

var (
	message string
	format  string
)

// Cmd represents the generate command
var Cmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a wire message from path/value pairs",
	Long: `Generate reads path/value pairs (YAML mapping or CSV with path and value
columns) and writes the complete wire message, with segment numbers and
message size filled in. Paths may omit the leading message name.`,
	Example: `  hbci-codec generate -m Transfer -i transfer.yaml -o transfer.hbci`,
	RunE:    generateFunc,
}

func init() {
	Cmd.Flags().StringVarP(&message, "message", "m", "", "Message type to generate")
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Input format: yaml or csv (default from file extension)")
	_ = Cmd.MarkFlagRequired("message")
}

func generateFunc(cmd *cobra.Command, args []string) error {
	c := root.AppContainer
	in := format
	if in == "" {
		in = common.FormatFromPath(root.SharedFlags.Input, "yaml")
	}
	values, err := c.Exporter(in)
	if err != nil {
		return err
	}

	root.Log.Debug("Generate command called")
	return common.GenerateFile(c.GetCodec(), values, common.Request{
		Version: root.Version(),
		Message: message,
		Input:   root.SharedFlags.Input,
		Output:  root.SharedFlags.Output,
		Stdin:   cmd.InOrStdin(),
		Stdout:  cmd.OutOrStdout(),
	}, root.Log)
}
