package roster

import "go.uber.org/fx"

// Module provides the table roster.
var Module = fx.Provide(New)
