// Package tools defines the tool catalog shared by the agent runner and the
// MCP server.
//
// A Tool declares its parameters once. The same declaration yields the JSON
// schema sent to the model (ToolDefs) and the MCP tool definition built in
// the common subpackage.
//
// Tool packages:
//   - triage_tools: triage_text
//   - gmail_tools: list_messages, get_message, create_draft_new, create_draft_reply
//   - github_tools: get_repo_readme, create_github_issue
//
// Tools that change state outside the process report ReadOnly() == false and
// are left out of read-only registries.
package tools
