// Package common provides the wrappers shared by all tool packages: the
// instrumented tool decorator and the adapter that serves a tool registry
// over MCP.
package common
