package pipeline

import (
	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/generation"
	"github.com/foxseedlab/fanreel/internal/notifier"
	"github.com/foxseedlab/fanreel/internal/retry"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		c := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[*session.Store](i)
		gateway := do.MustInvoke[generation.Gateway](i)
		sender := do.MustInvoke[notifier.Sender](i)
		imageRetry := retry.Policy{Name: "composite_image", MaxAttempts: c.ImageRetry.MaxAttempts, InitialDelay: c.ImageRetry.InitialDelay}
		videoRetry := retry.Policy{Name: "reference_video", MaxAttempts: c.VideoRetry.MaxAttempts, InitialDelay: c.VideoRetry.InitialDelay}
		return NewOrchestrator(store, gateway, sender, imageRetry, videoRetry), nil
	})
}
