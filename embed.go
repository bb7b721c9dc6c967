package hearth

import "embed"

// Migrations holds the goose SQL migrations applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
