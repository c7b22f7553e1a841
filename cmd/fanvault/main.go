package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fanvault/fanvault/internal/config"
	"github.com/fanvault/fanvault/internal/identity"
	"github.com/fanvault/fanvault/internal/logger"
	"github.com/fanvault/fanvault/internal/migration"
	"github.com/fanvault/fanvault/internal/observability/metrics"
	"github.com/fanvault/fanvault/internal/processor"
	"github.com/fanvault/fanvault/internal/ratelimit"
	"github.com/fanvault/fanvault/internal/server"
	"github.com/fanvault/fanvault/internal/subscription"
	"github.com/fanvault/fanvault/internal/webhook"
	"github.com/fanvault/fanvault/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,
		ratelimit.Module,

		// Functional domains
		processor.Module,
		identity.Module,
		subscription.Module,
		webhook.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
