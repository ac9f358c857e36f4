package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Document types stored as JSONB in per-collection tables.

type userDoc struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	PhoneNumber  string `json:"phonenumber"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	CreatedAt    string `json:"createdAt"`
}

// userStored is the persisted shape of userDoc; the password hash is kept
// out of userDoc's JSON so handlers can encode user documents directly.
type userStored struct {
	userDoc
	PasswordHash string `json:"passwordHash"`
}

type placeDoc struct {
	Name   string `json:"name"`
	Answer string `json:"answer"`
	Image  string `json:"image,omitempty"`
}

type trailLevelDoc struct {
	LevelNumber int        `json:"levelNumber"`
	Places      []placeDoc `json:"places"`
}

type pathEntryDoc struct {
	LevelNumber int    `json:"levelNumber"`
	Place       string `json:"place"`
	Answer      string `json:"answer"`
	Image       string `json:"image,omitempty"`
}

type timeLogDoc struct {
	Level     int    `json:"level"`
	Place     string `json:"place"`
	ScannedAt string `json:"scannedAt"`
}

type progressDoc struct {
	PlayerID           string         `json:"playerId"`
	Path               []pathEntryDoc `json:"path"`
	PlaceIndex         int            `json:"placeIndex"`
	CurrentLevelNumber int            `json:"currentLevelNumber"`
	StartTime          string         `json:"startTime"`
	EndTime            *string        `json:"endTime"`
	Completed          bool           `json:"completed"`
	TimeLog            []timeLogDoc   `json:"timeLog"`
}

// DocStore implements Store using per-collection tables with JSONB data
// columns. The phone number lives in its own UNIQUE column so concurrent
// signups cannot slip a duplicate past the application-level check.
type DocStore struct {
	db *sql.DB
}

func NewDocStore(ctx context.Context, db *sql.DB) (*DocStore, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			phonenumber TEXT UNIQUE NOT NULL,
			data        JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trail_levels (
			level_number INTEGER PRIMARY KEY,
			data         JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			player_id TEXT PRIMARY KEY,
			data      JSONB NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}

	return &DocStore{db: db}, nil
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func nowUTC() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Users

func (s *DocStore) CreateUser(ctx context.Context, u userDoc) error {
	data, err := json.Marshal(userStored{userDoc: u, PasswordHash: u.PasswordHash})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, phonenumber, data) VALUES (?, ?, jsonb(?))`,
		u.ID, u.PhoneNumber, string(data),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return ErrDuplicatePhone
	}
	return err
}

func (s *DocStore) userRow(ctx context.Context, query string, arg any) (userDoc, error) {
	var data string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return userDoc{}, ErrNotFound
	}
	if err != nil {
		return userDoc{}, err
	}
	var stored userStored
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return userDoc{}, err
	}
	u := stored.userDoc
	u.PasswordHash = stored.PasswordHash
	return u, nil
}

func (s *DocStore) UserByID(ctx context.Context, id string) (userDoc, error) {
	return s.userRow(ctx, `SELECT json(data) FROM users WHERE id = ?`, id)
}

func (s *DocStore) UserByPhone(ctx context.Context, phone string) (userDoc, error) {
	return s.userRow(ctx, `SELECT json(data) FROM users WHERE phonenumber = ?`, phone)
}

func (s *DocStore) ListUsers(ctx context.Context) ([]userDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM users ORDER BY phonenumber`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []userDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var stored userStored
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return nil, err
		}
		u := stored.userDoc
		u.PasswordHash = stored.PasswordHash
		users = append(users, u)
	}
	return users, rows.Err()
}

// ModifyUser loads a user, applies fn, and saves it in a transaction.
func (s *DocStore) ModifyUser(ctx context.Context, id string, fn func(*userDoc) error) (userDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return userDoc{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT json(data) FROM users WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return userDoc{}, ErrNotFound
	}
	if err != nil {
		return userDoc{}, err
	}

	var stored userStored
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return userDoc{}, err
	}
	u := stored.userDoc
	u.PasswordHash = stored.PasswordHash

	if err := fn(&u); err != nil {
		return userDoc{}, err
	}

	out, err := json.Marshal(userStored{userDoc: u, PasswordHash: u.PasswordHash})
	if err != nil {
		return userDoc{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET phonenumber = ?, data = jsonb(?) WHERE id = ?`,
		u.PhoneNumber, string(out), id,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return userDoc{}, ErrDuplicatePhone
		}
		return userDoc{}, err
	}

	return u, tx.Commit()
}

func (s *DocStore) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DocStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// Trail levels

func (s *DocStore) putLevel(ctx context.Context, l trailLevelDoc) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trail_levels (level_number, data) VALUES (?, jsonb(?))
		 ON CONFLICT(level_number) DO UPDATE SET data = excluded.data`,
		l.LevelNumber, string(data),
	)
	return err
}

func (s *DocStore) Levels(ctx context.Context) ([]trailLevelDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM trail_levels`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []trailLevelDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var l trailLevelDoc
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].LevelNumber < levels[j].LevelNumber
	})
	return levels, nil
}

func (s *DocStore) Level(ctx context.Context, levelNumber int) (trailLevelDoc, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM trail_levels WHERE level_number = ?`, levelNumber,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return trailLevelDoc{}, ErrNotFound
	}
	if err != nil {
		return trailLevelDoc{}, err
	}
	var l trailLevelDoc
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return trailLevelDoc{}, err
	}
	return l, nil
}

// modifyLevel loads a level (creating it when createMissing is set), applies
// fn, and saves it in a transaction.
func (s *DocStore) modifyLevel(ctx context.Context, levelNumber int, createMissing bool, fn func(*trailLevelDoc) error) (trailLevelDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return trailLevelDoc{}, err
	}
	defer tx.Rollback()

	l := trailLevelDoc{LevelNumber: levelNumber, Places: []placeDoc{}}
	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM trail_levels WHERE level_number = ?`, levelNumber,
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !createMissing {
			return trailLevelDoc{}, ErrNotFound
		}
	case err != nil:
		return trailLevelDoc{}, err
	default:
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return trailLevelDoc{}, err
		}
	}

	if err := fn(&l); err != nil {
		return trailLevelDoc{}, err
	}

	out, err := json.Marshal(l)
	if err != nil {
		return trailLevelDoc{}, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO trail_levels (level_number, data) VALUES (?, jsonb(?))
		 ON CONFLICT(level_number) DO UPDATE SET data = excluded.data`,
		levelNumber, string(out),
	)
	if err != nil {
		return trailLevelDoc{}, err
	}

	return l, tx.Commit()
}

func (s *DocStore) AppendPlace(ctx context.Context, levelNumber int, p placeDoc) (trailLevelDoc, error) {
	return s.modifyLevel(ctx, levelNumber, true, func(l *trailLevelDoc) error {
		if len(l.Places) >= maxPlaces {
			return ErrLevelFull
		}
		l.Places = append(l.Places, p)
		return nil
	})
}

func (s *DocStore) ReplacePlace(ctx context.Context, levelNumber, index int, p placeDoc) (trailLevelDoc, error) {
	return s.modifyLevel(ctx, levelNumber, false, func(l *trailLevelDoc) error {
		if index < 0 || index >= len(l.Places) {
			return ErrBadPlaceIndex
		}
		l.Places[index] = p
		return nil
	})
}

func (s *DocStore) DeleteLevel(ctx context.Context, levelNumber int) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM trail_levels WHERE level_number = ?`, levelNumber,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Progress

func (s *DocStore) CreateProgress(ctx context.Context, p progressDoc) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO progress (player_id, data) VALUES (?, jsonb(?))`,
		p.PlayerID, string(data),
	)
	return err
}

func (s *DocStore) ProgressByPlayer(ctx context.Context, playerID string) (progressDoc, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM progress WHERE player_id = ?`, playerID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return progressDoc{}, ErrNotFound
	}
	if err != nil {
		return progressDoc{}, err
	}
	var p progressDoc
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return progressDoc{}, err
	}
	return p, nil
}

// ModifyProgress loads a progress record, applies fn, and saves it in a
// transaction. A non-nil error from fn rolls back and leaves the record
// untouched.
func (s *DocStore) ModifyProgress(ctx context.Context, playerID string, fn func(*progressDoc) error) (progressDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return progressDoc{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM progress WHERE player_id = ?`, playerID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return progressDoc{}, ErrNotFound
	}
	if err != nil {
		return progressDoc{}, err
	}

	var p progressDoc
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return progressDoc{}, err
	}

	if err := fn(&p); err != nil {
		return progressDoc{}, err
	}

	out, err := json.Marshal(p)
	if err != nil {
		return progressDoc{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE progress SET data = jsonb(?) WHERE player_id = ?`,
		string(out), playerID,
	)
	if err != nil {
		return progressDoc{}, err
	}

	return p, tx.Commit()
}

func (s *DocStore) ListProgress(ctx context.Context) ([]progressDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM progress ORDER BY player_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []progressDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p progressDoc
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// Ensure DocStore implements Store at compile time.
var _ Store = (*DocStore)(nil)
