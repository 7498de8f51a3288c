// Package ext provides optional host functions for report expressions that
// go beyond the built-in function set.
//
// The extension functions live in sub-packages grouped by category:
//   - extstring   – StartsWith, EndsWith, Contains, PadLeft, ProperCase, …
//   - extnumeric  – Sign, Fix, Clamp, Sqrt, Pow, Log, …
//   - extdatetime – DateAdd, DateDiff, DateSerial, Weekday, …
//   - extcrypto   – NewGuid, Hash, HMAC
//   - exttypes    – IsNumeric, IsDate, Coalesce, …
//
// Built-in functions take precedence over an extension with the same name.
//
// # Integration – all extensions at once
//
//	rep, err := gordl.Compile(ctx, r, ext.WithAll())
//
// # Integration – by category
//
//	rep, err := gordl.Compile(ctx, r, ext.With(extstring.All(), extnumeric.All()))
//
// # Integration – single function and own functions
//
//	reg, err := ext.NewRegistry([]functions.CustomFunctionDef{extcrypto.Hash(), myFunc})
//	rep, err := gordl.Compile(ctx, r, gordl.WithFunctions(reg))
package ext

import (
	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/pkg/ext/extcrypto"
	"github.com/sandrolain/gordl/pkg/ext/extdatetime"
	"github.com/sandrolain/gordl/pkg/ext/extnumeric"
	"github.com/sandrolain/gordl/pkg/ext/extstring"
	"github.com/sandrolain/gordl/pkg/ext/exttypes"
	"github.com/sandrolain/gordl/pkg/functions"
)

// All returns all extension function definitions.
func All() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extdatetime.All()...)
	all = append(all, extcrypto.All()...)
	all = append(all, exttypes.All()...)
	return all
}

// NewRegistry creates a function registry holding every definition of
// packs.
func NewRegistry(packs ...[]functions.CustomFunctionDef) (*functions.Registry, error) {
	var defs []functions.CustomFunctionDef
	for _, p := range packs {
		defs = append(defs, p...)
	}
	return functions.NewRegistry(defs...)
}

// With returns a compile option registering the given function packs. It
// panics if two definitions share a name.
func With(packs ...[]functions.CustomFunctionDef) gordl.Option {
	reg, err := NewRegistry(packs...)
	if err != nil {
		panic("ext: " + err.Error())
	}
	return gordl.WithFunctions(reg)
}

// WithAll returns a compile option registering all extension functions.
func WithAll() gordl.Option {
	return With(All())
}
