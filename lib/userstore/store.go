// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package userstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/sqlitepool"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("userstore: no such user")

	// ErrNameTaken is returned by Create for a handle already in use.
	ErrNameTaken = errors.New("userstore: name already in use")

	// ErrBadPassword is returned by Authenticate for a wrong password.
	ErrBadPassword = errors.New("userstore: wrong password")
)

// Config holds the parameters for Open.
type Config struct {
	Path string

	// BcryptCost defaults to bcrypt.DefaultCost. Tests use
	// bcrypt.MinCost.
	BcryptCost int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Store is the user database. It is safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	cost   int
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens (creating if needed) the user database at cfg.Path and
// brings its schema up to date.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       cfg.Path,
		Migrations: migrations,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("userstore: %w", err)
	}

	// Take one connection now so schema errors surface at startup
	// rather than at the first logon.
	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("userstore: %w", err)
	}
	pool.Put(conn)

	return &Store{pool: pool, cost: cfg.BcryptCost, clock: cfg.Clock, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Create adds a user with the given password and returns the stored
// record with its assigned number. Zero screen sizes, levels and
// language take the schema defaults.
func (s *Store) Create(ctx context.Context, user User, password string) (*User, error) {
	name := strings.ToUpper(strings.TrimSpace(user.Name))
	if name == "" {
		return nil, fmt.Errorf("userstore: empty name")
	}
	if password == "" {
		return nil, fmt.Errorf("userstore: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("userstore: hashing password: %w", err)
	}
	applyDefaults(&user)
	now := s.clock.Now()

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO users
		(name, real_name, password_hash, sl, dsl, street, city, state,
		 country, zip, phone, sex, birthday, computer, callsign, note,
		 first_on, screen_width, screen_lines, ansi, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				name, user.RealName, hash, user.SL, user.DSL, user.Street,
				user.City, user.State, user.Country, user.Zip, user.Phone,
				user.Sex, user.Birthday, user.Computer, user.Callsign,
				user.Note, now.Unix(), user.ScreenWidth, user.ScreenLines,
				user.ANSI, user.Language,
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
		}
		return nil, fmt.Errorf("userstore: inserting %s: %w", name, err)
	}

	number := int(conn.LastInsertRowID())
	s.logger.Info("user created", "number", number, "name", name, "sl", user.SL)
	return s.get(conn, "number = ?", number)
}

func applyDefaults(user *User) {
	if user.SL == 0 {
		user.SL = 10
	}
	if user.DSL == 0 {
		user.DSL = 10
	}
	if user.ScreenWidth == 0 {
		user.ScreenWidth = 80
	}
	if user.ScreenLines == 0 {
		user.ScreenLines = 24
	}
	if user.Language == "" {
		user.Language = "english"
	}
}

// Get returns the user with the given number.
func (s *Store) Get(ctx context.Context, number int) (*User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)
	return s.get(conn, "number = ?", number)
}

// ByName returns the user with the given handle, ignoring case.
func (s *Store) ByName(ctx context.Context, name string) (*User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)
	return s.get(conn, "name = ?", strings.TrimSpace(name))
}

func (s *Store) get(conn *sqlite.Conn, where string, arg any) (*User, error) {
	var user *User
	err := sqlitex.Execute(conn, "SELECT "+userColumns+" FROM users WHERE "+where, &sqlitex.ExecOptions{
		Args: []any{arg},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			user = scanUser(stmt)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("userstore: query: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, arg)
	}
	return user, nil
}

// Authenticate checks name and password. A wrong password counts
// against the account's illegal logons and returns ErrBadPassword; an
// unknown name returns ErrNotFound.
func (s *Store) Authenticate(ctx context.Context, name, password string) (*User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var hash []byte
	number := 0
	err = sqlitex.Execute(conn, "SELECT number, password_hash FROM users WHERE name = ?", &sqlitex.ExecOptions{
		Args: []any{strings.TrimSpace(name)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			number = stmt.ColumnInt(0)
			hash = make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, hash)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("userstore: query: %w", err)
	}
	if number == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		s.logger.Warn("bad password", "number", number)
		updateErr := sqlitex.Execute(conn, "UPDATE users SET illegal_logons = illegal_logons + 1 WHERE number = ?", &sqlitex.ExecOptions{
			Args: []any{number},
		})
		if updateErr != nil {
			return nil, fmt.Errorf("userstore: recording failed logon: %w", updateErr)
		}
		return nil, ErrBadPassword
	}
	return s.get(conn, "number = ?", number)
}

// RecordLogon counts a successful logon at when: the logon total goes
// up, the per-day count restarts on a new calendar day, and LastOn
// moves to when. It returns the updated record.
func (s *Store) RecordLogon(ctx context.Context, number int, when time.Time) (_ *User, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("userstore: begin: %w", err)
	}
	defer endFn(&err)

	user, err := s.get(conn, "number = ?", number)
	if err != nil {
		return nil, err
	}
	timesToday := user.TimesOnToday + 1
	if !sameDay(user.LastOn, when) {
		timesToday = 1
	}
	err = sqlitex.Execute(conn, `UPDATE users
		SET logons = logons + 1, times_on_today = ?, last_on = ?
		WHERE number = ?`, &sqlitex.ExecOptions{
		Args: []any{timesToday, unixSeconds(when), number},
	})
	if err != nil {
		return nil, fmt.Errorf("userstore: recording logon: %w", err)
	}
	return s.get(conn, "number = ?", number)
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// SetTerminal stores the caller's screen preferences.
func (s *Store) SetTerminal(ctx context.Context, number, width, lines int, ansi bool) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "UPDATE users SET screen_width = ?, screen_lines = ?, ansi = ? WHERE number = ?", &sqlitex.ExecOptions{
		Args: []any{width, lines, ansi, number},
	})
	if err != nil {
		return fmt.Errorf("userstore: updating terminal: %w", err)
	}
	if conn.Changes() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, number)
	}
	return nil
}

// Count returns the number of accounts.
func (s *Store) Count(ctx context.Context) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	count := 0
	err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM users", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("userstore: count: %w", err)
	}
	return count, nil
}
