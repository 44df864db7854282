package migrations

import "embed"

// Files stores goose SQL migrations embedded into the binary.
//
//go:embed *.sql
var Files embed.FS
