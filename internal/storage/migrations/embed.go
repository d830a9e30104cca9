// Package migrations carries the schema of the score store and the borrower
// system of record. Postgres files are goose migrations; ClickHouse files are
// plain DDL applied in name order.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS

// Migration sets, each rooted at its own directory.
var (
	PostgresFS   = subdir("postgres")
	ClickhouseFS = subdir("clickhouse")
)

func subdir(name string) fs.FS {
	sub, err := fs.Sub(files, name)
	if err != nil {
		panic(err)
	}
	return sub
}
