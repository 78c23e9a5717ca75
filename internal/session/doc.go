// Package session drives the conversational flows over the catalog.
//
// # Components
//
//   - Session: one conversation's multi-step edit state machine
//   - Router: per-chat session registry with authorization and callback dedupe
//   - Browser: the read-only end-user navigation flow
//
// # State Machine
//
// A session is always in exactly one state. The asset-update flow walks
// idle -> choosing_category -> choosing_mode -> awaiting_asset_input; the
// taxonomy-management flow walks browsing_taxonomy -> section_detail ->
// mode_detail, with awaiting_text_input and awaiting_confirmation as
// transient stops while an edit is pending.
//
// Sessions hold no catalog data of their own, only IDs. Every decision point
// re-reads the catalog, because another conversation may have renamed or
// deleted the same entity between turns; a vanished target recovers to the
// section overview instead of failing the session.
//
// # Confirmations
//
// Destructive edits require an explicit confirmation carrying the target's
// IDs. A confirmation that does not match the pending task, because the
// session was cancelled or moved on since the prompt, is rejected without
// side effects.
package session
