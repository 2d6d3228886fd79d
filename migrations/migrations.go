// Package migrations embeds the versioned schema for the hero points store.
package migrations

import "embed"

// FS holds the goose migration files. Pass "." as the directory.
//
//go:embed *.sql
var FS embed.FS
