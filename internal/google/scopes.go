package google

import (
	"slices"

	gmail "google.golang.org/api/gmail/v1"
)

// DefaultScopes grants read-only mailbox access.
var DefaultScopes = []string{gmail.GmailReadonlyScope}

// WithCompose returns scopes plus the compose scope needed to create drafts.
func WithCompose(scopes []string) []string {
	if CanCompose(scopes) {
		return scopes
	}
	out := slices.Clone(scopes)
	return append(out, gmail.GmailComposeScope)
}

// CanCompose reports whether scopes allow draft creation.
func CanCompose(scopes []string) bool {
	for _, s := range scopes {
		switch s {
		case gmail.GmailComposeScope, gmail.GmailModifyScope, gmail.MailGoogleComScope:
			return true
		}
	}
	return false
}
