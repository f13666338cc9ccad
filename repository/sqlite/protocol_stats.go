package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/monadflip/flip-monitor/db"
	"github.com/monadflip/flip-monitor/entity"
)

type protocolStatsRepo struct {
	*baseSQLiteRepo
	playersTable string
}

func NewProtocolStatsRepo(table, playersTable string, db *db.DB) entity.ProtocolStatsRepo {
	return &protocolStatsRepo{
		baseSQLiteRepo: newBaseSQLiteRepo(table, db),
		playersTable:   playersTable,
	}
}

func (r *protocolStatsRepo) RecordGame(ctx context.Context, winner string, payout decimal.Decimal, timestamp int64) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		q, args, err := sq.Select("total_volume").
			From(r.table).
			Where(sq.Eq{"id": 1}).
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		var volume decimal.Decimal
		if err = tx.GetContext(ctx, &volume, q, args...); err != nil {
			return fmt.Errorf("can't read current volume: %w", err)
		}

		q, args, err = sq.Update(r.table).
			Set("total_volume", volume.Add(payout)).
			Set("total_games", sq.Expr("total_games + 1")).
			Set("last_updated", timestamp).
			Where(sq.Eq{"id": 1}).
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("can't accrue game stats: %w", err)
		}

		q, args, err = sq.Insert(r.playersTable).
			Columns("address", "first_seen").
			Values(winner, timestamp).
			Suffix("ON CONFLICT (address) DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("can't insert player: %w", err)
		}

		q, args, err = sq.Select("COUNT(*)").From(r.playersTable).ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		var players uint
		if err = tx.GetContext(ctx, &players, q, args...); err != nil {
			return fmt.Errorf("can't count players: %w", err)
		}

		q, args, err = sq.Update(r.table).
			Set("total_players", players).
			Where(sq.Eq{"id": 1}).
			ToSql()
		if err != nil {
			return fmt.Errorf("can't build query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("can't update player count: %w", err)
		}
		return nil
	})
}

func (r *protocolStatsRepo) Get(ctx context.Context) (*entity.ProtocolStats, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	stats := new(entity.ProtocolStats)
	err = r.db.GetContext(ctx, stats, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get protocol stats: %w", err)
	}
	return stats, nil
}
