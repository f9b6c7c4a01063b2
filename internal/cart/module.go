package cart

import "go.uber.org/fx"

// Module provides the table cart cache.
var Module = fx.Provide(New)
