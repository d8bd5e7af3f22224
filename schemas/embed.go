// Package schemas embeds the SQL migrations for the projects database.
package schemas

import "embed"

// Migrations holds every migration file, applied in lexical order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
