package sqlite

import (
	"github.com/monadflip/flip-monitor/db"
)

type baseSQLiteRepo struct {
	table string
	db    *db.DB
}

func newBaseSQLiteRepo(table string, db *db.DB) *baseSQLiteRepo {
	return &baseSQLiteRepo{
		table: table,
		db:    db,
	}
}
