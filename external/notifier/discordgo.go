package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/foxseedlab/fanreel/internal/notifier"
)

// Discord messages are capped at 2000 characters, counted in runes.
const discordMessageLimit = 2000

type DiscordSender struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordSender posts through the REST API only; no gateway connection is
// opened.
func NewDiscordSender(token, channelID string) (*DiscordSender, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &DiscordSender{session: s, channelID: channelID}, nil
}

func (d *DiscordSender) SendSessionOutcome(ctx context.Context, payload notifier.SessionOutcomePayload) error {
	content := truncateMessage(notifier.BuildChatMessage(payload))
	if _, err := d.session.ChannelMessageSend(d.channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord message send failed: %w", err)
	}
	return nil
}

func truncateMessage(content string) string {
	runes := []rune(content)
	if len(runes) <= discordMessageLimit {
		return content
	}
	return string(runes[:discordMessageLimit-3]) + "..."
}
