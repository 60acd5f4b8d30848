// Package composes resolves CSS Modules composition.
//
// A rule with a single class selector may declare
//
//	.title { composes: base global(wide) button from "./controls.css"; }
//
// Process removes such declarations and describes their effect with ICSS
// blocks instead: every imported name gets a placeholder bound in an
// ":import" block, and the ":export" block maps each composing class to the
// space separated list of names which must be applied together with it.
// Composition of local classes is flattened transitively.
//
// Names are resolved in this order: global(name) and "from global" are used
// verbatim, "from source" yields an import placeholder, a name bound by an
// ":import" block already present in the sheet is passed through, a local
// class contributes its own flattened list. Anything else is an error.
package composes
