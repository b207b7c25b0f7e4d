// Package db embeds the SQL schema shipped with the service binary.
package db

import _ "embed"

// SchemaSQL is the base table schema, applied as migration v1.
//
//go:embed schema.sql
var SchemaSQL string
