// Package parse handles reading wire messages into path/value pairs
package parse

import (
	"fjacquet/hbci-codec/cmd/common"
	"fjacquet/hbci-codec/cmd/root"

	"github.com/spf13/cobra"
)

var (
	message       string
	format        string
	checkSequence bool
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a wire message into path/value pairs",
	Long: `Parse reads a wire message of the given type and writes the values of all
its data elements as path/value pairs, in natural path order.`,
	Example: `  hbci-codec parse -m Transfer -i transfer.hbci -f csv`,
	RunE:    parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&message, "message", "m", "", "Message type to parse")
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: yaml or csv (default output.format)")
	Cmd.Flags().BoolVar(&checkSequence, "check-sequence", true, "Require segment numbers 1, 2, 3...")
	_ = Cmd.MarkFlagRequired("message")
}

func parseFunc(cmd *cobra.Command, args []string) error {
	c := root.AppContainer
	out := format
	if out == "" {
		out = common.FormatFromPath(root.SharedFlags.Output, "")
	}
	values, err := c.Exporter(out)
	if err != nil {
		return err
	}

	check := c.GetConfig().Codec.CheckSequence
	if cmd.Flags().Changed("check-sequence") {
		check = checkSequence
	}

	root.Log.Debug("Parse command called")
	return common.ParseFile(c.GetCodec(), values, common.Request{
		Version:       root.Version(),
		Message:       message,
		Input:         root.SharedFlags.Input,
		Output:        root.SharedFlags.Output,
		CheckSequence: check,
		Stdin:         cmd.InOrStdin(),
		Stdout:        cmd.OutOrStdout(),
	}, root.Log)
}
