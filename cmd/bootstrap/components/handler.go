package components

import (
	"smart-parking-engine/internal/handler"
	"smart-parking-engine/internal/handler/api"
	"smart-parking-engine/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewSlotHandler,
		api.NewPresenceHandler,
		api.NewWSHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
