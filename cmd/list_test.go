package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ccmock.dev/pkg/ccmock/internal/domain"
	domainmocks "ccmock.dev/pkg/ccmock/internal/domain/mocks"
	m "ccmock.dev/pkg/ccmock/internal/model"
)

func TestListCmd_RendersDeclarations(t *testing.T) {
	gen := domainmocks.NewMockGenerator(t)
	useGenerator(t, gen)

	tu := m.NewTranslationUnitScope()
	reports := []domain.CollectReport{{
		Source: "a.c",
		Result: &domain.CollectResult{Decls: []*m.Decl{{
			Kind:   m.DeclFunction,
			Name:   "lib_open",
			Scope:  tu,
			Result: m.NewType("int"),
			Params: []m.Param{{Name: "path", Type: m.NewType("const char *")}},
			Loc:    m.Location{File: "lib.h", Line: 4, Column: 5},
		}}},
	}}

	gen.On("Collect", mock.Anything, mock.MatchedBy(func(args domain.CollectArgs) bool {
		return assert.ObjectsAreEqual([]m.Path{"a.c"}, args.Sources) &&
			assert.ObjectsAreEqual([]string{"log_*"}, args.Options.Mocking.Blacklist)
	})).Return(reports, nil).Once()

	stdout, _, err := executeCommand(t, "list", "-x", "log_*", "a.c")
	require.NoError(t, err)

	assert.Contains(t, stdout, "int lib_open(const char *path)")
	assert.Contains(t, stdout, "lib.h:4:5")
	assert.Contains(t, stdout, "1 declaration(s) in 1 file(s)")
}

func TestListCmd_Errors(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		useGenerator(t, domainmocks.NewMockGenerator(t))

		_, _, err := executeCommand(t, "list")
		require.Error(t, err)
	})

	t.Run("collect failure", func(t *testing.T) {
		gen := domainmocks.NewMockGenerator(t)
		useGenerator(t, gen)

		gen.On("Collect", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidPattern).Once()

		stdout, _, err := executeCommand(t, "list", "a.c")
		require.True(t, errors.Is(err, domain.ErrInvalidPattern))
		assert.Empty(t, stdout)
	})
}
