package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

const configFilePerm = 0o644

func newConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration that results from defaults, ccmock.yaml, extra
config files, environment variables and flags as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadOptions(); err != nil {
				return err
			}

			content, err := yaml.Marshal(viper.AllSettings())
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}

			if err := sourceFS.WriteFileAtomic(m.Path(output), content, configFilePerm); err != nil {
				return fmt.Errorf("write configuration: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, outputFlagName, "o", "", "write the configuration to this file instead of stdout")

	return cmd
}
