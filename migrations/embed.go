// Package migrations embeds the numbered SQL migrations so the API server
// and the admin CLI apply the same schema without a path on disk.
package migrations

import "embed"

// FS holds every NNN_name.up.sql / NNN_name.down.sql file.
//
//go:embed *.sql
var FS embed.FS
