package cmd

import (
	"github.com/spf13/cobra"

	"ccmock.dev/pkg/ccmock/internal/controller"
	"ccmock.dev/pkg/ccmock/internal/domain"
)

const listLongDescription = `List the declarations that would be mocked for the given source files,
with their kind, signature and declaring location.`

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <files...>",
		Short: "List the declarations that would be mocked",
		Long:  listLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			console, err := newConsole(cmd)
			if err != nil {
				return err
			}

			generator, err := newGenerator(opts, console)
			if err != nil {
				return err
			}

			reports, err := generator.Collect(cmd.Context(), domain.CollectArgs{
				Sources: parsePaths(args),
				Options: opts,
			})
			if err != nil {
				return err
			}

			return controller.RenderDeclarations(cmd.OutOrStdout(), reports)
		},
	}
}
