package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ccmock.dev/pkg/ccmock/internal/domain"
)

const (
	outputFlagName    = "output"
	backendFlagName   = "backend"
	writeDateFlagName = "write-date"
	forceFlagName     = "force"
	checkFlagName     = "check"
)

const generateLongDescription = `Generate mocks for the external declarations used by the given source files.

With one source file the mocks are written to --output, or to stdout when no
output is configured. With several source files --output must be an existing
directory and each file is written to <dir>/<stem>.inc.

An existing output file is only replaced with --force. Unchanged output is
left alone. With --check nothing is written; a unified diff is printed for
every output that is out of date and the command fails.`

func newGenerateCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "generate <files...>",
		Short: "Generate mocks for source files",
		Long:  generateLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			opts.General.Check = check

			console, err := newConsole(cmd)
			if err != nil {
				return err
			}

			generator, err := newGenerator(opts, console)
			if err != nil {
				return err
			}

			return generator.Generate(cmd.Context(), domain.GenerateArgs{
				Sources: parsePaths(args),
				Options: opts,
				Version: buildVersion(),
				Stdout:  cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()

	flags.StringP(outputFlagName, "o", viper.GetString(outputKey), "output file, or directory with several sources (default: stdout)")
	bindFlagToConfig(flags.Lookup(outputFlagName), outputKey)

	flags.StringP(backendFlagName, "b", viper.GetString(backendKey), "mock idiom: gmock, fff, cmocka or raw")
	bindFlagToConfig(flags.Lookup(backendFlagName), backendKey)

	flags.Bool(writeDateFlagName, viper.GetBool(writeDateKey), "write the generation date into the header")
	bindFlagToConfig(flags.Lookup(writeDateFlagName), writeDateKey)

	flags.BoolP(forceFlagName, "f", viper.GetBool(forceKey), "overwrite existing output files")
	bindFlagToConfig(flags.Lookup(forceFlagName), forceKey)

	flags.BoolVar(&check, checkFlagName, false, "fail with a diff when an output file is out of date")

	return cmd
}
