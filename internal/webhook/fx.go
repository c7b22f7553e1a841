package webhook

import (
	"github.com/fanvault/fanvault/internal/webhook/repository"
	"github.com/fanvault/fanvault/internal/webhook/service"
	"github.com/fanvault/fanvault/internal/webhook/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook",
	fx.Provide(
		stripe.New,
		repository.Provide,
		service.NewService,
	),
)
