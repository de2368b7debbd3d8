// Package google resolves OAuth2 credentials for the Gmail API.
//
// Credentials are looked up in a fixed order: a base64 encoded authorized-user
// JSON from the environment, then a token file on disk, then (unless running
// headless) the interactive installed-app flow over a loopback redirect. The
// token file uses the authorized-user JSON layout, so tokens written here can
// be reused by other Google client libraries and vice versa.
//
// The TokenProvider interface decouples consumers from how the token is
// obtained; Resolver is the implementation used by the CLI and server.
package google
