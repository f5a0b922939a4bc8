// Package cmd provides the root command and CLI setup for ccmock.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ccmock.dev/pkg/ccmock/internal/adapter"
	"ccmock.dev/pkg/ccmock/internal/controller"
	"ccmock.dev/pkg/ccmock/internal/domain"
	m "ccmock.dev/pkg/ccmock/internal/model"
)

const (
	configFlagName          = "config"
	verboseFlagName         = "verbose"
	quietFlagName           = "quiet"
	colorFlagName           = "color"
	parallelFlagName        = "parallel"
	baseDirectoryFlagName   = "base-directory"
	strictFlagName          = "strict"
	blacklistFlagName       = "blacklist"
	mockBuiltinsFlagName    = "mock-builtins"
	mockCStdLibFlagName     = "mock-c-std-lib"
	mockCXXStdLibFlagName   = "mock-cxx-std-lib"
	mockVariadicFlagName    = "mock-variadic-functions"
	frontendFlagName        = "frontend"
	clangFlagName           = "clang"
	resourceDirFlagName     = "resource-dir"
	compileCommandsFlagName = "compile-commands"
	extraArgFlagName        = "extra-arg"
)

var sourceFS adapter.SourceFSAdapter
var compilerRunner adapter.CompilerRunnerAdapter

// newGenerator builds the generation pipeline for one run.
var newGenerator func(opts m.Options, diag domain.Diagnostics) (domain.Generator, error)

// configFlags holds the repeatable --config values of the running command.
var configFlags []string

// rootCmd represents the base command when called without any subcommands.
var rootCmd *cobra.Command

func init() {
	sourceFS = adapter.NewLocalSourceFSAdapter()
	compilerRunner = adapter.NewLocalCompilerRunnerAdapter()
	newGenerator = defaultGenerator

	// Flag defaults are read from viper, so the tree is built after setupConfig.
	rootCmd = newRootCmd()
}

func defaultGenerator(opts m.Options, diag domain.Diagnostics) (domain.Generator, error) {
	frontend, err := adapter.NewFrontend(opts.Frontend, sourceFS, compilerRunner)
	if err != nil {
		return nil, err
	}

	return domain.NewGenerator(frontend, sourceFS, diag), nil
}

const rootLongDescription = `ccmock generates mocks for the C and C++ functions a translation unit
uses but does not define. Each source file is parsed with its compilation
database flags and every referenced external function, method and global
variable is emitted for one of the supported mocking idioms:

  gmock    Google Mock classes plus forwarding shims
  fff      Fake Function Framework fakes
  cmocka   cmocka wrappers
  raw      plain declarations

Configuration is read from ccmock.yaml, files given with --config or
CCMOCK_CONFIG, and CCMOCK_* environment variables.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ccmock",
		Short:         "C and C++ mock generator",
		Long:          rootLongDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := mergeConfigFiles(configFiles(configFlags)); err != nil {
				return err
			}

			configureLogger(viper.GetBool(verboseKey))

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	cmd.AddCommand(
		newGenerateCmd(),
		newListCmd(),
		newConfigCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringArrayVar(&configFlags, configFlagName, nil, "additional config file merged over ccmock.yaml (can be repeated)")

	flags.BoolP(verboseFlagName, "v", viper.GetBool(verboseKey), "write debug output to the log file")
	bindFlagToConfig(flags.Lookup(verboseFlagName), verboseKey)

	flags.BoolP(quietFlagName, "q", viper.GetBool(quietKey), "suppress info and warning messages")
	bindFlagToConfig(flags.Lookup(quietFlagName), quietKey)

	flags.String(colorFlagName, viper.GetString(useColorKey), "colorize messages: auto, never or always")
	bindFlagToConfig(flags.Lookup(colorFlagName), useColorKey)

	flags.IntP(parallelFlagName, "j", viper.GetInt(parallelKey), "number of source files processed in parallel")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelKey)

	flags.String(baseDirectoryFlagName, viper.GetString(baseDirectoryKey), "directory that paths in generated headers are relative to")
	bindFlagToConfig(flags.Lookup(baseDirectoryFlagName), baseDirectoryKey)

	flags.Bool(strictFlagName, viper.GetBool(strictKey), "fail on declarations that cannot be mocked")
	bindFlagToConfig(flags.Lookup(strictFlagName), strictKey)

	flags.StringArrayP(blacklistFlagName, "x", viper.GetStringSlice(blacklistKey), "do not mock declarations matching this glob (can be repeated)")
	bindFlagToConfig(flags.Lookup(blacklistFlagName), blacklistKey)

	flags.Bool(mockBuiltinsFlagName, viper.GetBool(mockBuiltinsKey), "mock compiler builtins")
	bindFlagToConfig(flags.Lookup(mockBuiltinsFlagName), mockBuiltinsKey)

	flags.Bool(mockCStdLibFlagName, viper.GetBool(mockCStdLibKey), "mock C standard library functions")
	bindFlagToConfig(flags.Lookup(mockCStdLibFlagName), mockCStdLibKey)

	flags.Bool(mockCXXStdLibFlagName, viper.GetBool(mockCXXStdLibKey), "mock C++ standard library functions")
	bindFlagToConfig(flags.Lookup(mockCXXStdLibFlagName), mockCXXStdLibKey)

	flags.Bool(mockVariadicFlagName, viper.GetBool(mockVariadicFunctionsKey), "mock variadic functions")
	bindFlagToConfig(flags.Lookup(mockVariadicFlagName), mockVariadicFunctionsKey)

	flags.String(frontendFlagName, viper.GetString(frontendKindKey), "frontend used to parse sources: clang or treesitter")
	bindFlagToConfig(flags.Lookup(frontendFlagName), frontendKindKey)

	flags.String(clangFlagName, viper.GetString(frontendClangKey), "clang executable")
	bindFlagToConfig(flags.Lookup(clangFlagName), frontendClangKey)

	flags.String(resourceDirFlagName, viper.GetString(frontendResourceDirKey), "clang resource directory")
	bindFlagToConfig(flags.Lookup(resourceDirFlagName), frontendResourceDirKey)

	flags.StringP(compileCommandsFlagName, "p", viper.GetString(frontendCompileCommandsKey), "compile_commands.json or compile_flags.txt (default: detected)")
	bindFlagToConfig(flags.Lookup(compileCommandsFlagName), frontendCompileCommandsKey)

	flags.StringArray(extraArgFlagName, viper.GetStringSlice(frontendExtraArgsKey), "additional compiler argument (can be repeated)")
	bindFlagToConfig(flags.Lookup(extraArgFlagName), frontendExtraArgsKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// newConsole creates the diagnostics console on the command's stderr.
func newConsole(cmd *cobra.Command) (*controller.Console, error) {
	mode, err := controller.ParseColorMode(viper.GetString(useColorKey))
	if err != nil {
		return nil, err
	}

	return controller.NewConsole(cmd.ErrOrStderr(), controller.ConsoleOptions{
		Quiet: viper.GetBool(quietKey),
		Color: mode,
	}), nil
}

// Execute runs the root command and exits with status 1 on failure.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		reportError(rootCmd, err)
		os.Exit(1)
	}
}

// reportError prints err through the console, falling back to plain text
// when the console settings themselves are invalid.
func reportError(cmd *cobra.Command, err error) {
	console, consoleErr := newConsole(cmd)
	if consoleErr != nil {
		console = controller.NewConsole(cmd.ErrOrStderr(), controller.ConsoleOptions{Color: controller.ColorNever})
	}

	console.Errorf("%v", err)
}

// buildVersion is the module version printed in generated headers.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}

	return info.Main.Version
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
