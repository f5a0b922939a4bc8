package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	m "ccmock.dev/pkg/ccmock/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "ccmock"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix    = "CCMOCK"
	configEnvVar = envPrefix + "_CONFIG"

	outputKey        = "general.output"
	baseDirectoryKey = "general.base_directory"
	writeDateKey     = "general.write_date"
	verboseKey       = "general.verbose"
	quietKey         = "general.quiet"
	strictKey        = "general.strict"
	forceKey         = "general.force"
	useColorKey      = "general.use_color"
	parallelKey      = "general.parallel"

	backendKey               = "mocking.backend"
	blacklistKey             = "mocking.blacklist"
	mockBuiltinsKey          = "mocking.mock_builtins"
	mockCStdLibKey           = "mocking.mock_c_std_lib"
	mockCXXStdLibKey         = "mocking.mock_cxx_std_lib"
	mockVariadicFunctionsKey = "mocking.mock_variadic_functions"

	gmockClassNameKey           = "gmock.class_name"
	gmockMockTypeKey            = "gmock.mock_type"
	gmockFixtureNameKey         = "gmock.fixture_name"
	gmockGlobalNamespaceNameKey = "gmock.global_namespace_name"
	gmockWriteMainKey           = "gmock.write_main"

	fffGCCFunctionAttributesKey = "fff.gcc_function_attributes"
	fffArgHistoryLenKey         = "fff.arg_history_len"
	fffCallHistoryLenKey        = "fff.call_history_len"
	fffCallingConventionKey     = "fff.calling_convention"

	cmockaStrictMocksKey      = "cmocka.strict_mocks"
	cmockaOutputParametersKey = "cmocka.output_parameters"

	frontendKindKey            = "frontend.kind"
	frontendClangKey           = "frontend.clang"
	frontendResourceDirKey     = "frontend.resource_dir"
	frontendCompileCommandsKey = "frontend.compile_commands"
	frontendExtraArgsKey       = "frontend.extra_args"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultUseColor = "auto"

	defaultLogFilename   = ".ccmock.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	setupConfig()
}

// setupConfig installs the config search path, the environment mapping and
// every default, then reads ccmock.yaml when present.
func setupConfig() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	defaults := m.DefaultOptions()

	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(outputKey, string(defaults.General.Output))
	viper.SetDefault(baseDirectoryKey, string(defaults.General.BaseDirectory))
	viper.SetDefault(writeDateKey, defaults.General.WriteDate)
	viper.SetDefault(verboseKey, defaults.General.Verbose)
	viper.SetDefault(quietKey, defaults.General.Quiet)
	viper.SetDefault(strictKey, defaults.General.Strict)
	viper.SetDefault(forceKey, defaults.General.Force)
	viper.SetDefault(useColorKey, defaultUseColor)
	viper.SetDefault(parallelKey, defaults.General.Parallel)

	viper.SetDefault(backendKey, string(defaults.Mocking.Backend))
	viper.SetDefault(blacklistKey, []string{})
	viper.SetDefault(mockBuiltinsKey, defaults.Mocking.MockBuiltins)
	viper.SetDefault(mockCStdLibKey, defaults.Mocking.MockCStdLib)
	viper.SetDefault(mockCXXStdLibKey, defaults.Mocking.MockCXXStdLib)
	viper.SetDefault(mockVariadicFunctionsKey, defaults.Mocking.MockVariadicFunctions)

	viper.SetDefault(gmockClassNameKey, defaults.GMock.ClassName)
	viper.SetDefault(gmockMockTypeKey, defaults.GMock.MockType)
	viper.SetDefault(gmockFixtureNameKey, defaults.GMock.FixtureName)
	viper.SetDefault(gmockGlobalNamespaceNameKey, defaults.GMock.GlobalNamespaceName)
	viper.SetDefault(gmockWriteMainKey, defaults.GMock.WriteMain)

	viper.SetDefault(fffGCCFunctionAttributesKey, defaults.FFF.GCCFunctionAttributes)
	viper.SetDefault(fffArgHistoryLenKey, defaults.FFF.ArgHistoryLen)
	viper.SetDefault(fffCallHistoryLenKey, defaults.FFF.CallHistoryLen)
	viper.SetDefault(fffCallingConventionKey, defaults.FFF.CallingConvention)

	viper.SetDefault(cmockaStrictMocksKey, defaults.CMocka.StrictMocks)
	viper.SetDefault(cmockaOutputParametersKey, defaults.CMocka.OutputParameters)

	viper.SetDefault(frontendKindKey, string(defaults.Frontend.Kind))
	viper.SetDefault(frontendClangKey, defaults.Frontend.Clang)
	viper.SetDefault(frontendResourceDirKey, defaults.Frontend.ResourceDir)
	viper.SetDefault(frontendCompileCommandsKey, string(defaults.Frontend.CompileCommands))
	viper.SetDefault(frontendExtraArgsKey, []string{})

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}

		slog.Warn("Failed to read config file", "error", err)
	}
}

// resetConfig drops every value and binding and installs the defaults again.
func resetConfig() {
	viper.Reset()
	setupConfig()
}

// configFiles lists the extra config files: CCMOCK_CONFIG entries first,
// then the --config flags in order.
func configFiles(flags []string) []string {
	var files []string

	for _, path := range filepath.SplitList(os.Getenv(configEnvVar)) {
		if strings.TrimSpace(path) != "" {
			files = append(files, path)
		}
	}

	return append(files, flags...)
}

// mergeConfigFiles merges files over the current configuration. Later files
// win.
func mergeConfigFiles(files []string) error {
	for _, path := range files {
		viper.SetConfigFile(path)

		if err := viper.MergeInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}

		slog.Debug("Merged config file", "path", path)
	}

	return nil
}

// loadOptions resolves the effective run options from flags, environment,
// config files and defaults.
func loadOptions() (m.Options, error) {
	opts := m.DefaultOptions()

	backend, err := m.ParseBackend(viper.GetString(backendKey))
	if err != nil {
		return opts, err
	}

	kind, err := m.ParseFrontendKind(viper.GetString(frontendKindKey))
	if err != nil {
		return opts, err
	}

	opts.General = m.GeneralOptions{
		Output:        m.Path(viper.GetString(outputKey)),
		BaseDirectory: m.Path(viper.GetString(baseDirectoryKey)),
		WriteDate:     viper.GetBool(writeDateKey),
		Verbose:       viper.GetBool(verboseKey),
		Quiet:         viper.GetBool(quietKey),
		Strict:        viper.GetBool(strictKey),
		Force:         viper.GetBool(forceKey),
		Parallel:      viper.GetInt(parallelKey),
	}

	opts.Mocking = m.MockingOptions{
		Backend:               backend,
		Blacklist:             viper.GetStringSlice(blacklistKey),
		MockBuiltins:          viper.GetBool(mockBuiltinsKey),
		MockCStdLib:           viper.GetBool(mockCStdLibKey),
		MockCXXStdLib:         viper.GetBool(mockCXXStdLibKey),
		MockVariadicFunctions: viper.GetBool(mockVariadicFunctionsKey),
	}

	opts.GMock = m.GMockOptions{
		ClassName:           viper.GetString(gmockClassNameKey),
		MockType:            viper.GetString(gmockMockTypeKey),
		FixtureName:         viper.GetString(gmockFixtureNameKey),
		GlobalNamespaceName: viper.GetString(gmockGlobalNamespaceNameKey),
		WriteMain:           viper.GetBool(gmockWriteMainKey),
	}

	opts.FFF = m.FFFOptions{
		GCCFunctionAttributes: viper.GetString(fffGCCFunctionAttributesKey),
		ArgHistoryLen:         viper.GetInt(fffArgHistoryLenKey),
		CallHistoryLen:        viper.GetInt(fffCallHistoryLenKey),
		CallingConvention:     viper.GetString(fffCallingConventionKey),
	}

	opts.CMocka = m.CMockaOptions{
		StrictMocks:      viper.GetBool(cmockaStrictMocksKey),
		OutputParameters: viper.GetBool(cmockaOutputParametersKey),
	}

	opts.Frontend = m.FrontendOptions{
		Kind:            kind,
		Clang:           viper.GetString(frontendClangKey),
		ResourceDir:     viper.GetString(frontendResourceDirKey),
		CompileCommands: m.Path(viper.GetString(frontendCompileCommandsKey)),
		ExtraArgs:       viper.GetStringSlice(frontendExtraArgsKey),
	}

	if opts.General.Parallel < 1 {
		return opts, fmt.Errorf("parallel must be at least 1, got %d", opts.General.Parallel)
	}

	return opts, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the global slog logger writing to the rotating
// log file. It logs at log.level, or at Debug when verbose is set.
func configureLogger(verbose bool) {
	logPath := viper.GetString(logFilenameKey)
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
