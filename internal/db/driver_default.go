//go:build !sqlite3_cgo

package db

import (
	// pure Go build, no C toolchain required
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var sqliteDriver = driver{name: "sqlite3", id: "ncruces/go-sqlite3"}
