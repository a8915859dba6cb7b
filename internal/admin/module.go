package admin

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/account"
	"github.com/meridianlabs/accounthub/internal/audit"
)

// NewModule returns the admin module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(accounts *account.Service, reader audit.Reader, log *zap.Logger) *Handler {
					return NewHandler(accounts, reader, log)
				},
			),
		),
	)
}
