package model

import (
	"fmt"
	"strings"
)

// Backend selects the mock idiom to generate.
type Backend string

// Supported backends.
const (
	BackendGMock  Backend = "gmock"
	BackendFFF    Backend = "fff"
	BackendCMocka Backend = "cmocka"
	BackendRaw    Backend = "raw"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendGMock, BackendFFF, BackendCMocka, BackendRaw}

// ParseBackend resolves a backend name case-insensitively.
func ParseBackend(name string) (Backend, error) {
	for _, b := range Backends {
		if strings.EqualFold(string(b), strings.TrimSpace(name)) {
			return b, nil
		}
	}

	return "", fmt.Errorf("unknown backend %q (want one of gmock, fff, cmocka, raw)", name)
}

// FrontendKind selects the compiler frontend.
type FrontendKind string

// Supported frontends.
const (
	FrontendClang      FrontendKind = "clang"
	FrontendTreeSitter FrontendKind = "treesitter"
)

// ParseFrontendKind resolves a frontend name.
func ParseFrontendKind(name string) (FrontendKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(FrontendClang):
		return FrontendClang, nil
	case string(FrontendTreeSitter), "tree-sitter":
		return FrontendTreeSitter, nil
	default:
		return "", fmt.Errorf("unknown frontend %q (want clang or treesitter)", name)
	}
}

// GeneralOptions controls the run as a whole.
type GeneralOptions struct {
	Output        Path
	BaseDirectory Path
	WriteDate     bool
	Verbose       bool
	Quiet         bool
	Strict        bool
	Force         bool
	Check         bool
	Parallel      int
}

// MockingOptions controls which declarations are mocked.
type MockingOptions struct {
	Backend               Backend
	Blacklist             []string
	MockBuiltins          bool
	MockCStdLib           bool
	MockCXXStdLib         bool
	MockVariadicFunctions bool
}

// GMockOptions configures the gmock backend.
type GMockOptions struct {
	ClassName           string
	MockType            string
	FixtureName         string
	GlobalNamespaceName string
	WriteMain           bool
}

// Validate checks the gmock settings.
func (o GMockOptions) Validate() error {
	switch o.MockType {
	case "StrictMock", "NiceMock", "NaggyMock":
	default:
		return fmt.Errorf("invalid gmock mock type %q (want StrictMock, NiceMock or NaggyMock)", o.MockType)
	}

	if o.ClassName == "" || o.FixtureName == "" || o.GlobalNamespaceName == "" {
		return fmt.Errorf("gmock class, fixture and global namespace names must not be empty")
	}

	return nil
}

// FFFOptions configures the fff backend. Negative history lengths keep the
// framework defaults.
type FFFOptions struct {
	GCCFunctionAttributes string
	ArgHistoryLen         int
	CallHistoryLen        int
	CallingConvention     string
}

// CMockaOptions configures the cmocka backend.
type CMockaOptions struct {
	StrictMocks      bool
	OutputParameters bool
}

// FrontendOptions configures how translation units are parsed.
type FrontendOptions struct {
	Kind            FrontendKind
	Clang           string
	ResourceDir     string
	CompileCommands Path
	ExtraArgs       []string
}

// Options is the complete configuration of one run.
type Options struct {
	General  GeneralOptions
	Mocking  MockingOptions
	GMock    GMockOptions
	FFF      FFFOptions
	CMocka   CMockaOptions
	Frontend FrontendOptions
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		General: GeneralOptions{Parallel: 1},
		Mocking: MockingOptions{
			Backend:               BackendGMock,
			MockVariadicFunctions: true,
		},
		GMock: GMockOptions{
			ClassName:           "ccmock_",
			MockType:            "StrictMock",
			FixtureName:         "CCMockFixture",
			GlobalNamespaceName: "mock",
		},
		FFF: FFFOptions{
			ArgHistoryLen:  -1,
			CallHistoryLen: -1,
		},
		CMocka: CMockaOptions{
			StrictMocks:      true,
			OutputParameters: true,
		},
		Frontend: FrontendOptions{
			Kind:  FrontendClang,
			Clang: "clang",
		},
	}
}
