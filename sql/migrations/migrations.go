// Package migrations embeds the goose SQL migrations for the activity database.
package migrations

import "embed"

// FS holds the numbered goose migration files
//
//go:embed *.sql
var FS embed.FS
