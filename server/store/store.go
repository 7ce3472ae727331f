package store

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Write helpers
------------------------------*/

// RecordAction appends one accepted action to the per-hand log.
func (db *DB) RecordAction(ctx context.Context, tableID string, handNo int, street string, seat int, kind string, amount *int, pot int) error {
	_, err := db.Exec(ctx, `
        INSERT INTO hand_actions(table_id, hand_no, street, seat, kind, amount, pot)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, tableID, handNo, street, seat, kind, amount, pot)
	return err
}

// HandRecord is the settled-hand summary written once per hand.
type HandRecord struct {
	TableID    string
	HandNo     int
	Dealer     int
	SmallBlind int
	BigBlind   int
	Winner     int // seat index, or 2 for a split pot
	Pot        int
	Board      string // space-separated mnemonics
	Category0  *string
	Category1  *string
}

func (db *DB) RecordHand(ctx context.Context, h HandRecord) error {
	_, err := db.Exec(ctx, `
        INSERT INTO hands(table_id, hand_no, dealer, small_blind, big_blind,
                          winner, pot, board, p0_category, p1_category)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, h.TableID, h.HandNo, h.Dealer, h.SmallBlind, h.BigBlind,
		h.Winner, h.Pot, h.Board, h.Category0, h.Category1)
	return err
}

/* -----------------------------
   Read helpers
------------------------------*/

type HandRow struct {
	ID        int64   `json:"id"`
	HandNo    int     `json:"hand_no"`
	Dealer    int     `json:"dealer"`
	Winner    int     `json:"winner"`
	Pot       int     `json:"pot"`
	Board     string  `json:"board"`
	Category0 *string `json:"p0_category"`
	Category1 *string `json:"p1_category"`
}

// RecentHands lists settled hands for a table, newest first.
func (db *DB) RecentHands(ctx context.Context, tableID string, limit int) ([]HandRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
        SELECT id, hand_no, dealer, winner, pot, board, p0_category, p1_category
          FROM hands
         WHERE table_id = $1
         ORDER BY id DESC
         LIMIT $2
    `, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HandRow{}
	for rows.Next() {
		var h HandRow
		if err := rows.Scan(&h.ID, &h.HandNo, &h.Dealer, &h.Winner, &h.Pot, &h.Board, &h.Category0, &h.Category1); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
