// Package studynotes is the composition root of the StudyNotes note manager.
//
// It wires the domain state manager (pkg/state) to a key/value store adapter
// (pkg/adapters/...) chosen through functional options. The manager keeps two
// collections, subjects and notes, and writes each collection back as a whole
// on every mutation, under the keys "studynotes-subjects" and "studynotes-notes".
//
// Adapters:
//
//   - fs (default): one file per key in a vault directory, atomic writes,
//     optional git history, external change watching.
//   - sqlite: a single kv table in studynotes.db.
//   - redis: plain string keys under a prefix.
//   - memory: nothing persisted, for tests and throwaway sessions.
//
// Usage:
//
//	mgr, err := studynotes.New("./vault", studynotes.WithAutoInit(true))
//	if err != nil {
//		return err
//	}
//	note, err := mgr.AddNote(ctx, "math")
package studynotes
