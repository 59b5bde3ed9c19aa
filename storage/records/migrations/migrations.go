// Package migrations embeds the goose migrations for the sql records strategy.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
