package types

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type (
	WebhookSecret string
	RepoFullName  string
	RequestID     string
)

func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (x WebhookSecret) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x WebhookSecret) String() string {
	return "***********"
}

var ptnRepoFullName = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

// Valid reports whether the name is an exact "owner/repo" pair. The name is
// used to build a config file path, so anything else is rejected, including
// dot-only segments that would escape the base directory.
func (x RepoFullName) Valid() bool {
	if !ptnRepoFullName.MatchString(string(x)) {
		return false
	}

	switch x.Owner() {
	case ".", "..":
		return false
	}
	switch x.Name() {
	case ".", "..":
		return false
	}
	return true
}

func (x RepoFullName) Owner() string {
	owner, _, _ := strings.Cut(string(x), "/")
	return owner
}

func (x RepoFullName) Name() string {
	_, name, _ := strings.Cut(string(x), "/")
	return name
}

// Short returns the repository name without the owner part.
func (x RepoFullName) Short() string {
	if idx := strings.LastIndex(string(x), "/"); idx >= 0 {
		return string(x)[idx+1:]
	}
	return string(x)
}
