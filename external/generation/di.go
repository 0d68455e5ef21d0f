package generation

import (
	"github.com/foxseedlab/fanreel/internal/config"
	"github.com/foxseedlab/fanreel/internal/generation"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (generation.Gateway, error) {
		c := do.MustInvoke[*config.Config](i)
		backend := NewFalQueueBackend(FalQueueConfig{
			QueueURL:     c.FalQueueURL,
			Key:          c.FalKey,
			PollInterval: c.FalPollInterval,
		})
		return generation.NewGateway(backend, generation.Models{
			CompositeImage: c.FalImageModel,
			ReferenceVideo: c.FalVideoModel,
		}), nil
	})
}
