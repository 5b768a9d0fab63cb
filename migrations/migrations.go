// Package migrations embeds the SQL schema migrations for the destinations store.
package migrations

import "embed"

// FS holds the numbered golang-migrate files.
//
//go:embed *.sql
var FS embed.FS
