package bootstrap

import (
	"smart-parking-engine/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	AWSModule,
	JWTModule,
	components.EngineModule,
	components.UseCaseModule,
	components.HandlerModule,
)
