// Package agent runs the triage agents: a bounded tool loop over an
// llm.Provider with handoffs between agents, guardrails on input and
// output, and a keyword heuristic fallback when no provider is configured.
//
// Agents:
//   - Triage: answers directly, reads READMEs, hands issue requests to GitOps.
//   - GitOps: opens GitHub issues.
//   - GmailTriage: reads the mailbox and produces a triage payload, drafting
//     replies on request.
//
// Every run ends in an Outcome. A handoff is offered to the model as a
// transfer_to_<agent> tool; calling it switches the active agent and keeps
// the conversation.
package agent
