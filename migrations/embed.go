// Package migrations embeds the schema files so the binary carries them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
