package subscription

import (
	"github.com/fanvault/fanvault/internal/subscription/repository"
	"github.com/fanvault/fanvault/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
