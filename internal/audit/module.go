package audit

import (
	"go.uber.org/fx"

	"github.com/meridianlabs/accounthub/internal/database"
)

// NewModule returns the audit module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(manager *database.Manager) *dbRecorder {
					return NewRecorder(manager.DB())
				},
			),
			func(r *dbRecorder) Recorder { return r },
			func(r *dbRecorder) Reader { return r },
		),
	)
}

var (
	_ Recorder = (*dbRecorder)(nil)
	_ Reader   = (*dbRecorder)(nil)
)
