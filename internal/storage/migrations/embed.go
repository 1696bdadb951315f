// Package migrations embeds the SQL schema for each supported database driver.
package migrations

import "embed"

// FS holds one directory of numbered *.up.sql files per driver.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
