// Package migrations embeds the tern SQL migrations applied at startup.
package migrations

import "embed"

//go:embed *.sql
var MigrationFiles embed.FS
