// Package triage implements the offline triage heuristic used when no LLM
// backend is configured.
//
// The heuristic maps free text (an email body, a pasted request) to a
// Payload: a bounded summary, a 1-5 priority score, up to three suggested
// actions and exactly three reply drafts. It is deterministic, holds no
// state and never fails, so it is safe to call concurrently and to use as a
// fallback for LLM output that does not satisfy the payload invariants.
//
// Example usage:
//
//	p := triage.Run("URGENT: schedule a meeting ASAP")
//	fmt.Println(p.Priority)   // 5
//	fmt.Println(p.Actions[0]) // Propose times and confirm the meeting context.
package triage
