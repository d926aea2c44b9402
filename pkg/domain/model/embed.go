package model

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Discord embed colors. The description cap is a hard limit of the Discord
// API and must be enforced after the description is fully composed.
const (
	ColorSuccess = 0x00FF00
	ColorError   = 0xFF0000
	ColorTag     = 0xFFD700
	ColorGeneric = 0x3498DB

	descriptionLimit = 2000
)

type Embed struct {
	Title       string          `json:"title,omitempty"`
	URL         string          `json:"url,omitempty"`
	Color       int             `json:"color,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Description string          `json:"description,omitempty"`
	Thumbnail   *EmbedThumbnail `json:"thumbnail,omitempty"`
	Author      *EmbedAuthor    `json:"author,omitempty"`
	Fields      []EmbedField    `json:"fields,omitempty"`
	Footer      *EmbedFooter    `json:"footer,omitempty"`
}

type EmbedThumbnail struct {
	URL string `json:"url"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
	URL     string `json:"url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// WebhookMessage is the body posted to a Discord webhook URL.
type WebhookMessage struct {
	Embeds    []*Embed `json:"embeds"`
	Username  string   `json:"username,omitempty"`
	AvatarURL string   `json:"avatar_url,omitempty"`
}

// BuildEmbed composes the notification embed for a webhook payload and the
// aggregated pipeline log. The embed is built fresh per event; the caller
// decorates it with DecorateEmbed before sending.
func BuildEmbed(p *Payload, runLog string, hasError bool, now time.Time) *Embed {
	switch p.Kind() {
	case EventKindTagPush:
		return buildTagEmbed(p, now)
	case EventKindPush:
		return buildPushEmbed(p, runLog, hasError, now)
	default:
		return buildGenericEmbed(p, runLog, hasError)
	}
}

// DecorateEmbed applies the uniform success/error marks: error runs turn red
// with an error-prefixed title, successful ones get a check mark.
func DecorateEmbed(e *Embed, hasError bool) {
	if hasError {
		e.Color = ColorError
		e.Title = "❌ Error: " + e.Title
	} else {
		e.Title = "✅ " + e.Title
	}
}

// buildTagEmbed announces a tag release. Tag pushes never run commands, so
// the embed carries no log under any circumstance.
func buildTagEmbed(p *Payload, now time.Time) *Embed {
	tag := p.Tag()
	shortName := p.Repository.FullName.Short()
	if p.Repository.FullName == "" {
		shortName = p.RepoDisplayName()
	}

	tagURL := p.Repository.HTMLURL
	if p.Repository.FullName != "" && tag != "" {
		tagURL = fmt.Sprintf("https://github.com/%s/releases/tag/%s", p.Repository.FullName, url.PathEscape(tag))
	}

	e := &Embed{
		Title:     fmt.Sprintf("%s %s has been released! 🎉", shortName, tag),
		URL:       tagURL,
		Color:     ColorTag,
		Timestamp: now.UTC().Format(time.RFC3339),
		Author:    buildAuthor(p),
		Footer:    &EmbedFooter{Text: "GitHub Tag Push Event"},
	}
	if icon := p.AvatarURL(); icon != "" {
		e.Thumbnail = &EmbedThumbnail{URL: icon}
	}

	return e
}

func buildPushEmbed(p *Payload, runLog string, hasError bool, now time.Time) *Embed {
	commits := p.CommitList()

	e := &Embed{
		Title:     fmt.Sprintf("New Commits Pushed to %s", p.RepoDisplayName()),
		URL:       p.Repository.HTMLURL,
		Color:     ColorSuccess,
		Timestamp: pushTimestamp(p, now),
		Author:    buildAuthor(p),
		Footer:    &EmbedFooter{Text: "GitHub Push Event"},
	}
	if icon := p.AvatarURL(); icon != "" {
		e.Thumbnail = &EmbedThumbnail{URL: icon}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Branch: **%s** - Commits: **%d**\n", p.Branch(), len(commits))
	for _, c := range commits {
		fmt.Fprintf(&b, "**%s**: [%s](%s)\n", shortCommitID(c.ID), c.Message, c.URL)
	}
	if hasError && runLog != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```", runLog)
	}
	e.Description = strings.TrimSpace(truncateDescription(b.String()))

	added, removed, modified := collectFileChanges(p)
	if len(added) > 0 {
		e.Fields = append(e.Fields, EmbedField{
			Name:  fmt.Sprintf("New (%d)", len(added)),
			Value: strings.Join(added, "\n"),
		})
	}
	if len(removed) > 0 {
		e.Fields = append(e.Fields, EmbedField{
			Name:  fmt.Sprintf("Deleted (%d)", len(removed)),
			Value: strings.Join(removed, "\n"),
		})
	}
	if len(modified) > 0 {
		e.Fields = append(e.Fields, EmbedField{
			Name:  fmt.Sprintf("Modified (%d)", len(modified)),
			Value: strings.Join(modified, "\n"),
		})
	}

	return e
}

func buildGenericEmbed(p *Payload, runLog string, hasError bool) *Embed {
	action := p.Action
	if action == "" {
		action = "Event"
	}

	e := &Embed{
		Title:       fmt.Sprintf("%s - %s", p.RepoDisplayName(), action),
		Color:       ColorGeneric,
		Description: "See details on GitHub for more information.",
		Footer:      &EmbedFooter{Text: "GitHub Event"},
	}
	if icon := p.AvatarURL(); icon != "" {
		e.Thumbnail = &EmbedThumbnail{URL: icon}
	}
	if hasError && runLog != "" {
		e.Description += fmt.Sprintf("\n```\n%s\n```", runLog)
	}

	return e
}

func buildAuthor(p *Payload) *EmbedAuthor {
	author := &EmbedAuthor{Name: p.PusherName()}
	if icon := p.AvatarURL(); icon != "" {
		author.IconURL = icon
	}
	if p.Pusher != nil && p.Pusher.Name != "" {
		author.URL = "https://github.com/" + p.Pusher.Name
	}
	return author
}

func pushTimestamp(p *Payload, now time.Time) string {
	if p.HeadCommit != nil && p.HeadCommit.Timestamp != "" {
		return p.HeadCommit.Timestamp
	}
	return now.UTC().Format(time.RFC3339)
}

func shortCommitID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// truncateDescription enforces the Discord description cap: over-long text is
// cut to 1997 characters with a 3-character ellipsis, exactly 2000 in total.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionLimit {
		return s
	}
	return string(runes[:descriptionLimit-3]) + "..."
}

// collectFileChanges unions the added/removed/modified file lists of all
// commits plus the head commit. A file that appears as modified anywhere wins
// over its add/delete classification.
func collectFileChanges(p *Payload) (added, removed, modified []string) {
	addedSet := map[string]struct{}{}
	removedSet := map[string]struct{}{}
	modifiedSet := map[string]struct{}{}

	collect := func(c *Commit) {
		for _, f := range c.Added {
			addedSet[f] = struct{}{}
		}
		for _, f := range c.Removed {
			removedSet[f] = struct{}{}
		}
		for _, f := range c.Modified {
			modifiedSet[f] = struct{}{}
		}
	}

	commits := p.CommitList()
	for i := range commits {
		collect(&commits[i])
	}
	if p.HeadCommit != nil {
		collect(p.HeadCommit)
	}

	for f := range modifiedSet {
		delete(addedSet, f)
		delete(removedSet, f)
	}

	return sortedKeys(addedSet), sortedKeys(removedSet), sortedKeys(modifiedSet)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
