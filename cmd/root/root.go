// Package root contains the root command for the application
package root

import (
	"fjacquet/hbci-codec/internal/config"
	"fjacquet/hbci-codec/internal/container"
	"fjacquet/hbci-codec/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input         string
	Output        string
	SchemaDir     string
	SchemaVersion string
}

var (
	// Log is the shared logger instance for commands. It is replaced by the
	// container's logger once configuration is loaded.
	Log = logging.NewLogrusAdapter("info", "text")

	// AppContainer holds the wired dependencies of the running command.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "hbci-codec",
		Short: "A CLI tool to generate and parse HBCI messages.",
		Long: `hbci-codec builds HBCI/FinTS wire messages from path/value pairs and
parses wire messages back into path/value pairs, driven by schema files.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initContainer,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				_ = AppContainer.Close()
			}
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file (default stdin)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (default stdout)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.SchemaDir, "schema-dir", "", "Directory of schema files (overrides schema.directory)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.SchemaVersion, "schema-version", "s", "", "Protocol version (overrides schema.version)")
}

// ApplyFlags lets explicitly given flags win over file and environment
// configuration.
func ApplyFlags(cfg *config.Config, flags CommonFlags) {
	if flags.SchemaDir != "" {
		cfg.Schema.Directory = flags.SchemaDir
	}
	if flags.SchemaVersion != "" {
		cfg.Schema.Version = flags.SchemaVersion
	}
}

// Version returns the protocol version the running command works with.
func Version() string {
	if AppContainer == nil {
		return SharedFlags.SchemaVersion
	}
	return AppContainer.GetConfig().Schema.Version
}

func initContainer(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}
	ApplyFlags(cfg, SharedFlags)

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	AppContainer = c
	Log = c.GetLogger().WithField(logging.FieldComponent, cmd.Name())
	return nil
}
