package domain

import "errors"

// Fatal conditions of a generation run. Callers abort the run on any of them;
// nothing is written when one occurs.
var (
	ErrInvalidPattern            = errors.New("invalid blacklist pattern")
	ErrVariadicWithoutParameters = errors.New("unable to mock variadic function with no parameters")
	ErrDuplicateDeclaration      = errors.New("failed to mark declaration as visited")
	ErrOutputExists              = errors.New("output file already exists")
	ErrOutdated                  = errors.New("generated output is out of date")
	ErrStrict                    = errors.New("warnings treated as errors")
)
