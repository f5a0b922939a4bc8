// Package model defines the data structures shared by the frontends, the
// collector and the mock backends.
package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// Language identifies the source language of a translation unit.
type Language string

const (
	// LanguageC is plain C.
	LanguageC Language = "C"
	// LanguageCXX is C++.
	LanguageCXX Language = "C++"
)

// LanguageForPath guesses the language of a source file from its extension.
// Anything that is not obviously C is treated as C++.
func LanguageForPath(path Path) Language {
	ext := filepath.Ext(string(path))

	// Upper-case .C is C++ by convention.
	if ext == ".C" {
		return LanguageCXX
	}

	switch strings.ToLower(ext) {
	case ".c", ".i":
		return LanguageC
	default:
		return LanguageCXX
	}
}

// Location is a resolved source position.
type Location struct {
	File   string
	Line   int
	Column int
	// InMainFile is false for positions inside included headers and for
	// compiler generated code without a position.
	InMainFile bool
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}

	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
