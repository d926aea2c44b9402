package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Discord holds the display identity of outgoing webhook messages.
type Discord struct {
	username  string
	avatarURL string
}

func (x *Discord) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notify-username",
			Usage:       "Display name of the Discord webhook sender",
			Category:    "Discord",
			Destination: &x.username,
			Sources:     cli.EnvVars("KNIT_NOTIFY_USERNAME"),
			Value:       "Knit",
		},
		&cli.StringFlag{
			Name:        "notify-avatar",
			Usage:       "Avatar URL of the Discord webhook sender",
			Category:    "Discord",
			Destination: &x.avatarURL,
			Sources:     cli.EnvVars("KNIT_NOTIFY_AVATAR"),
		},
	}
}

func (x *Discord) Username() string {
	return x.username
}

func (x *Discord) AvatarURL() string {
	return x.avatarURL
}

func (x *Discord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("Username", x.username),
		slog.Any("AvatarURL", x.avatarURL),
	)
}
