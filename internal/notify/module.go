package notify

import "go.uber.org/fx"

// Module provides the notification hub.
var Module = fx.Provide(NewHub)
