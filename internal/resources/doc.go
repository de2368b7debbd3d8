// Package resources provides read-only MCP resources: the agent catalog and
// the profile of the authorized Gmail mailbox.
package resources
