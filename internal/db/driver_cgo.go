//go:build cgo && sqlite3_cgo

package db

import (
	_ "github.com/mattn/go-sqlite3"
)

var sqliteDriver = driver{name: "sqlite3", id: "mattn/go-sqlite3"}
