// Package common holds enums shared between configuration and processing
// packages so neither has to import the other.
package common

//go:generate go tool go-enum --marshal --names --values

// Specification of how composition problems are reported: "warn" keeps going
// and collects warnings, "error" aborts processing of the stylesheet.
// ENUM(warn, error)
type Strictness int

func (s Strictness) Strict() bool {
	return s == StrictnessError
}

// Specification of default class scope when scoping is enabled. In "local"
// mode bare class names are local, in "global" mode only names wrapped in
// :local(...) are.
// ENUM(global, local)
type ScopeMode int
