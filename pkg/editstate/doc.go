// Package editstate tracks the editing state of a form bound to a model.
//
// An EditContext records which fields were modified, owns the validation
// message store, and notifies observers when a field changes, when
// validation is requested, and when the validation state changes.
//
// Notification is synchronous and ordered. Events raised by an observer are
// queued behind the event being delivered, so observers never re-enter each
// other; a drain delivers at most MaxDispatch events and drops the rest.
// Validate itself always runs immediately: only its notifications are
// queued, and the store is replaced in one assignment so no observer sees a
// partially written store.
//
// Async validation goes through tickets. BeginAsync captures the current
// revision; ApplyAsync rejects the result if a newer ticket was issued or a
// field changed in the meantime.
package editstate
