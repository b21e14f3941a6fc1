// Package migrations embeds the goose SQL migrations. The statements stay
// within the subset of SQL shared by MySQL, PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
