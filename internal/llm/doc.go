// Package llm defines the provider-neutral chat types the agent runner
// talks to. Backends live in subpackages.
package llm
