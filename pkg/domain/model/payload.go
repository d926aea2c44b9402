package model

import (
	"strings"

	"github.com/m-mizutani/knit/pkg/domain/types"
)

// EventKind is the upfront classification of a webhook payload. Every
// downstream branch (pipeline stages, embed composition) switches on the kind
// instead of probing optional fields.
type EventKind int

const (
	// EventKindGeneric is any event that is neither a commit push nor a tag
	// push, e.g. issue or star events. It never triggers commands.
	EventKindGeneric EventKind = iota

	// EventKindPush is a commit push: the payload carries a commits list
	// (possibly empty).
	EventKindPush

	// EventKindTagPush is a push whose ref points at refs/tags/. It is
	// announcement-only and never triggers commands.
	EventKindTagPush
)

func (x EventKind) String() string {
	switch x {
	case EventKindPush:
		return "push"
	case EventKindTagPush:
		return "tag_push"
	default:
		return "generic"
	}
}

const tagRefPrefix = "refs/tags/"

// Payload is the parsed shape of a GitHub webhook body. Only the fields the
// pipeline and the notification composer need are mapped; the raw bytes stay
// on WebhookEvent for signature checking.
type Payload struct {
	Ref        string     `json:"ref"`
	Action     string     `json:"action"`
	Commits    *[]Commit  `json:"commits"`
	HeadCommit *Commit    `json:"head_commit"`
	Repository Repository `json:"repository"`
	Pusher     *Pusher    `json:"pusher"`
	Sender     *Account   `json:"sender"`
}

type Commit struct {
	ID        string   `json:"id"`
	Message   string   `json:"message"`
	URL       string   `json:"url"`
	Timestamp string   `json:"timestamp"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
}

type Repository struct {
	FullName types.RepoFullName `json:"full_name"`
	HTMLURL  string             `json:"html_url"`
	Owner    *Account           `json:"owner"`
}

type Pusher struct {
	Name string `json:"name"`
}

type Account struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

func (x *Payload) Kind() EventKind {
	switch {
	case strings.HasPrefix(x.Ref, tagRefPrefix):
		return EventKindTagPush
	case x.Commits != nil:
		return EventKindPush
	default:
		return EventKindGeneric
	}
}

// Branch strips the refs/heads/ prefix. Returns "unknown" when the payload
// has no ref, matching the notification text of branchless events.
func (x *Payload) Branch() string {
	if x.Ref == "" {
		return "unknown"
	}
	return strings.TrimPrefix(x.Ref, "refs/heads/")
}

func (x *Payload) Tag() string {
	return strings.TrimPrefix(x.Ref, tagRefPrefix)
}

func (x *Payload) CommitList() []Commit {
	if x.Commits == nil {
		return nil
	}
	return *x.Commits
}

// PusherName is the display name of the account that pushed, or "unknown".
func (x *Payload) PusherName() string {
	if x.Pusher == nil || x.Pusher.Name == "" {
		return "unknown"
	}
	return x.Pusher.Name
}

// AvatarURL picks the best available avatar: the sender's, then the
// repository owner's.
func (x *Payload) AvatarURL() string {
	if x.Sender != nil && x.Sender.AvatarURL != "" {
		return x.Sender.AvatarURL
	}
	if x.Repository.Owner != nil && x.Repository.Owner.AvatarURL != "" {
		return x.Repository.Owner.AvatarURL
	}
	return ""
}

// RepoDisplayName is the full repository name for notification titles.
func (x *Payload) RepoDisplayName() string {
	if x.Repository.FullName == "" {
		return "Unknown Repository"
	}
	return string(x.Repository.FullName)
}
