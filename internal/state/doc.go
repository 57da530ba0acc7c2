// Package state holds the client's view of the multiverse.
//
// # Overview
//
// A multiverse is an ordered list of universes split into two subsets:
//
//   - Confirmed universes come from the server. Every snapshot received on
//     the push channel replaces the whole subset; there is no merging and no
//     identity carried between snapshots.
//   - Editable universes exist only in this client. They are created with an
//     empty grid and a freshly allocated colour, toggled cell by cell, and
//     then either saved (submitted to the server) or dropped.
//
// Views always list confirmed universes first, then editable ones in the
// order they were created.
//
// # Handles
//
// Editable universes are addressed by a Handle issued by CreateEditable. A
// handle stops resolving once its universe is dropped or saved; operations on
// it then fail with ErrUnknownHandle. This is what keeps a save that is still
// in flight from bringing back a universe the user already dropped:
//
//	h, _ := store.CreateEditable()
//	rec, _ := store.BeginSave(h)  // universe frozen, toggles rejected
//	store.DropEditable(h)         // user gives up while the request runs
//	store.MarkSaved(h)            // ErrUnknownHandle, nothing resurrected
//
// # Save lifecycle
//
// BeginSave freezes the universe and returns a copy of what to submit. On
// success the caller invokes MarkSaved, which moves the universe into the
// confirmed subset as an optimistic entry appended after the current ones.
// The next snapshot replaces it along with everything else. On failure
// AbortSave unfreezes it and it stays editable and unchanged.
//
// # Concurrency
//
// The push channel goroutine applies snapshots while the UI mutates editable
// universes, so every mutation runs under one lock and Snapshot returns deep
// copies. Subscribers registered with Subscribe are called after each
// successful mutation, outside the lock, on the goroutine that made it.
//
// # Connection status
//
// SetConnection records push channel transitions. View.IsOffline reports true
// once two reconnect cycles in a row ended without the channel opening,
// which the UI uses to switch its status line from "reconnecting" to
// "offline".
package state
