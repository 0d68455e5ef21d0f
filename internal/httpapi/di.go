package httpapi

import (
	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/foxseedlab/fanreel/internal/pipeline"
	"github.com/foxseedlab/fanreel/internal/progress"
	"github.com/foxseedlab/fanreel/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		store := do.MustInvoke[*session.Store](i)
		orchestrator := do.MustInvoke[*pipeline.Orchestrator](i)
		broadcaster := do.MustInvoke[*progress.Broadcaster](i)
		objects := do.MustInvoke[objectstore.Store](i)
		return NewServer(store, orchestrator, broadcaster, objects), nil
	})
}
