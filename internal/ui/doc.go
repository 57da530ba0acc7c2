// Package ui provides the terminal interface for the multiverse client.
//
// The interface is a Bubble Tea program. Model owns view state only; the
// multiverse itself lives in state.Store and reaches the UI as immutable
// state.View copies, either when the store signals a change or on a
// fallback tick.
//
// # Screens
//
//   - Gallery: every universe drawn with half blocks, confirmed ones first.
//     A merged universe larger than the configured size gets a row to itself.
//   - Editor: the most recently created editable universe with a cursor,
//     shown beside the gallery.
//   - Logs: a tail of the client's own log file (L).
//   - Help and modal dialogs are placed over the whole screen.
//
// # Actions
//
// Creating, toggling and dropping universes are local and go straight to
// the store. Save, big bang and merge are server round trips run as
// commands through the Actions interface; failures surface as an alert
// carrying the server's response text. Big bang and merge ask first.
//
// # Preferences
//
// The theme (T) and universes per row (+/-) are written to the prefs file
// as soon as they change.
package ui
