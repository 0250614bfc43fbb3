// Package memory records every conversation turn and recalls the fragments
// relevant to a new input.
//
// Invariants:
// - Messages are immutable once written; history clears start a new session.
// - Session timestamps are non-decreasing; message counts match saves.
// - The relational store is mandatory, the vector index is best-effort:
//   semantic failures degrade to keyword search and never reach the caller.
//
// Usage:
//
//	mgr, _ := memory.NewManager(memory.Config{UserID: "alice", DBPath: "/data/yui.db"})
//	defer mgr.Close()
//	_ = mgr.StartSession("yui")
//	_ = mgr.SaveMessage(memory.RoleUser, "I love pizza", "yui", "joy")
//	snippets, _ := mgr.GetRelevantContext(context.Background(), "what food do I like?", 3)
//	_ = snippets
package memory
