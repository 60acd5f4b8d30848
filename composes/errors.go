package composes

import (
	"fmt"
	"strings"
)

// location prefixes msg with the file and the declaration property when known.
func location(file, property, msg string) string {
	var sb strings.Builder
	if file != "" {
		sb.WriteString(file)
		sb.WriteString(": ")
	}
	if property != "" {
		sb.WriteString(property)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)
	return sb.String()
}

// NotSingleClassError is reported for composition declared on a selector
// which does not denote exactly one local class.
type NotSingleClassError struct {
	File     string
	Property string
	Selector string
}

func (e *NotSingleClassError) message() string {
	return fmt.Sprintf("composition is only allowed in single class selector, not in '%s'", e.Selector)
}

func (e *NotSingleClassError) Error() string {
	return location(e.File, e.Property, e.message())
}

// UndefinedClassError is reported when a composed name is neither global,
// imported nor a known local class.
type UndefinedClassError struct {
	File     string
	Property string
	Class    string // class declaring the composition
	Name     string // referenced name
}

func (e *UndefinedClassError) Error() string {
	return location(e.File, e.Property,
		fmt.Sprintf("referenced class name \"%s\" in composition of \"%s\" not found", e.Name, e.Class))
}

// CycleError is reported when local classes compose each other. Chain starts
// and ends with the same class.
type CycleError struct {
	File     string
	Property string
	Chain    []string
}

func (e *CycleError) message() string {
	return "composition cycle detected: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Error() string {
	return location(e.File, e.Property, e.message())
}

// SyntaxError is reported for composition values which could not be parsed.
type SyntaxError struct {
	File     string
	Property string
	Value    string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return location(e.File, e.Property, fmt.Sprintf("invalid value '%s': %s", e.Value, e.Reason))
}
