package session

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/config"
)

// NewModule returns the session module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) *Issuer {
					return NewIssuer(&config.Auth, log)
				},
			),
			fx.Annotate(
				func(issuer *Issuer) *Middleware {
					return NewMiddleware(issuer)
				},
			),
		),
	)
}
