// Package assets stores the media reference bound to each section/mode pair.
//
// Unlike the taxonomy, the asset table is keyed by display names, because the
// persisted document predates stable IDs and external tooling edits it by
// name. The table is subordinate to the taxonomy: on every load it is
// reconciled against the current section/mode names, adding missing slots as
// unset and pruning entries for names the taxonomy no longer has.
//
// A slot holds either a bound opaque reference or null for "not set yet".
// Lookups never fail; an unknown or unset pair simply reports no binding.
package assets
