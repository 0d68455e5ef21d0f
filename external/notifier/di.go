package notifier

import (
	"log/slog"

	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/notifier"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (notifier.Sender, error) {
		c := do.MustInvoke[*config.Config](i)
		senders := notifier.Fanout{}
		if c.NotifyWebhookURL != "" {
			senders = append(senders, NewHTTPWebhookSender(c.NotifyWebhookURL))
		}
		if c.DiscordToken != "" {
			ds, err := NewDiscordSender(c.DiscordToken, c.DiscordChannelID)
			if err != nil {
				return nil, err
			}
			senders = append(senders, ds)
		}
		slog.Info("session outcome notifiers configured", "count", len(senders))
		return senders, nil
	})
}
