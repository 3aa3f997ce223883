package backend

import (
	"os"
	"strings"
)

// TokenSource supplies the bearer credential issued by the external
// identity provider. An empty token means not authenticated; the client
// fails locally without issuing a request.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource backed by a fixed string.
type StaticToken string

func (t StaticToken) Token() string {
	return string(t)
}

// EnvToken reads the token from an environment variable on every call, so
// a re-authenticated shell picks up the new credential without a restart.
type EnvToken string

func (t EnvToken) Token() string {
	return strings.TrimSpace(os.Getenv(string(t)))
}

// ChainToken returns the first non-empty token from its sources.
type ChainToken []TokenSource

func (c ChainToken) Token() string {
	for _, src := range c {
		if tok := src.Token(); tok != "" {
			return tok
		}
	}
	return ""
}
