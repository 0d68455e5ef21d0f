package session

import (
	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Store, error) {
		objects := do.MustInvoke[objectstore.Store](i)
		return NewStore(objects), nil
	})
}
