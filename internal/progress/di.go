package progress

import (
	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Broadcaster, error) {
		c := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[*session.Store](i)
		return NewBroadcaster(store, c.ProgressPollInterval, c.ProgressMaxWait), nil
	})
}
