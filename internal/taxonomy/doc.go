// Package taxonomy owns the two-level catalog structure: sections, each
// holding an ordered list of modes.
//
// # Identity
//
// Every section and mode carries a short opaque ID that is stable across
// renames. Display names are mutable; IDs are the only durable handle other
// packages should hold between turns.
//
// # Persistence
//
// The taxonomy is a single JSON document, a list of section objects:
//
//	[
//	  {
//	    "id": "s3f2a1c",
//	    "name": "Arms",
//	    "modes": [
//	      {"id": "m9b0d4e", "name": "Warmup"}
//	    ]
//	  }
//	]
//
// Every mutation persists synchronously before it returns; a persistence
// failure rolls the in-memory state back, so memory and disk never diverge.
//
// # Legacy Documents
//
// Older documents stored bare strings for sections and modes, or objects
// without IDs. Open upgrades such entries in place, minting fresh IDs, and
// re-persists the document so the upgrade happens once. Anything else that
// does not fit the shape (a non-list top level, a numeric name, a malformed
// entry) fails Open with ErrMalformedDocument rather than guessing.
package taxonomy
