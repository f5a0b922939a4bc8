package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Classification(t *testing.T) {
	tests := []struct {
		name         string
		typ          Type
		void         bool
		pointer      bool
		fnPointer    bool
		rvalue       bool
		pointeeConst bool
		pointeeVoid  bool
	}{
		{name: "void", typ: NewType("void"), void: true},
		{name: "int", typ: NewType("int")},
		{name: "const char pointer", typ: NewType("const char *"), pointer: true, pointeeConst: true},
		{name: "const pointer to char", typ: NewType("char *const"), pointer: true},
		{name: "void pointer", typ: NewType("void *"), pointer: true, pointeeVoid: true},
		{name: "const void pointer", typ: NewType("const void *"), pointer: true, pointeeVoid: true, pointeeConst: true},
		{name: "pointer to pointer", typ: NewType("const char **"), pointer: true},
		{name: "function pointer", typ: NewType("void (*)(int, int)"), pointer: true, fnPointer: true},
		{name: "rvalue reference", typ: NewType("std::string &&"), rvalue: true},
		{name: "lvalue reference", typ: NewType("int &")},
		{
			name:      "typedef to function pointer",
			typ:       Type{Spelling: "callback_t", Canonical: "void (*)(int)"},
			pointer:   true,
			fnPointer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.void, tt.typ.IsVoid(), "IsVoid")
			assert.Equal(t, tt.pointer, tt.typ.IsPointer(), "IsPointer")
			assert.Equal(t, tt.fnPointer, tt.typ.IsFunctionPointer(), "IsFunctionPointer")
			assert.Equal(t, tt.rvalue, tt.typ.IsRValueReference(), "IsRValueReference")
			assert.Equal(t, tt.pointeeConst, tt.typ.PointeeConst(), "PointeeConst")
			assert.Equal(t, tt.pointeeVoid, tt.typ.PointeeVoid(), "PointeeVoid")
		})
	}
}

func TestType_Declare(t *testing.T) {
	tests := []struct {
		typ  string
		name string
		want string
	}{
		{"int", "x", "int x"},
		{"const char *", "fmt", "const char *fmt"},
		{"char *const", "p", "char *const p"},
		{"void (*)(int, int)", "cb", "void (*cb)(int, int)"},
		{"void *(*)(void (*)(int))", "f", "void *(*f)(void (*)(int))"},
		{"int [4]", "values", "int values[4]"},
		{"int (&)[4]", "ref", "int (&ref)[4]"},
		{"std::string &&", "s", "std::string &&s"},
		{"int", "", "int"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NewType(tt.typ).Declare(tt.name))
		})
	}
}

func TestType_WithoutLocalConst(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"const int", "int"},
		{"int const", "int"},
		{"const char *", "const char *"},
		{"char *const", "char *"},
		{"const volatile int", "volatile int"},
		{"int", "int"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NewType(tt.in).WithoutLocalConst().Printed())
		})
	}
}

func TestType_IsTypedef(t *testing.T) {
	assert.True(t, Type{Spelling: "size_t", Canonical: "unsigned long"}.IsTypedef())
	assert.False(t, Type{Spelling: "int", Canonical: "int"}.IsTypedef())
	assert.False(t, NewType("int").IsTypedef())
}
