// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailRegistered is returned when creating a user with a taken email.
	ErrEmailRegistered = errors.New("email already registered")
	// ErrInvalidCredentials is returned by [Authenticate] for an unknown
	// email or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	email           TEXT    NOT NULL UNIQUE,
	hashed_password TEXT    NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT    NOT NULL,
	description TEXT,
	owner_id    INTEGER NOT NULL REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS ix_items_title ON items(title);
`

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite database of the service.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and creates the tables.
//
// Example:
//
//	store, err := sqlapp.Open(ctx, "./sql_app.db")
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Conn returns a dedicated connection. The caller must close it.
func (s *Store) Conn(ctx context.Context) (*sql.Conn, error) {
	return s.db.Conn(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stats returns the connection pool statistics.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}

// GetUser returns the user id with its items.
func GetUser(ctx context.Context, q Querier, id int64) (*User, error) {
	return scanUser(ctx, q, q.QueryRowContext(ctx, `SELECT id, email, is_active FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns the user with the given email and its items.
func GetUserByEmail(ctx context.Context, q Querier, email string) (*User, error) {
	return scanUser(ctx, q, q.QueryRowContext(ctx, `SELECT id, email, is_active FROM users WHERE email = ?`, email))
}

func scanUser(ctx context.Context, q Querier, row *sql.Row) (*User, error) {
	u := &User{}
	if err := row.Scan(&u.ID, &u.Email, &u.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("read user: %w", err)
	}

	items, err := ItemsByOwner(ctx, q, u.ID)
	if err != nil {
		return nil, err
	}
	u.Items = items

	return u, nil
}

// ListUsers returns users ordered by id.
func ListUsers(ctx context.Context, q Querier, skip, limit int) ([]User, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, email, is_active FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.ID, &u.Email, &u.IsActive); err != nil {
			return nil, fmt.Errorf("read user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		if users[i].Items, err = ItemsByOwner(ctx, q, users[i].ID); err != nil {
			return nil, err
		}
	}

	return users, nil
}

// CreateUser stores a new user.
// Returns [ErrEmailRegistered] when the email is taken.
func CreateUser(ctx context.Context, q Querier, in UserCreate) (*User, error) {
	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	res, err := q.ExecContext(ctx, `INSERT INTO users (email, hashed_password) VALUES (?, ?)`, in.Email, hashed)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrEmailRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &User{ID: id, Email: in.Email, IsActive: true, Items: []Item{}}, nil
}

// Authenticate returns the user matching email and password.
func Authenticate(ctx context.Context, q Querier, email, password string) (*User, error) {
	var (
		id     int64
		hashed string
	)
	err := q.QueryRowContext(ctx, `SELECT id, hashed_password FROM users WHERE email = ? AND is_active`, email).Scan(&id, &hashed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return GetUser(ctx, q, id)
}

// ListItems returns items ordered by id.
func ListItems(ctx context.Context, q Querier, skip, limit int) ([]Item, error) {
	return queryItems(ctx, q, `SELECT id, title, description, owner_id FROM items ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
}

// ItemsByOwner returns the items of a user ordered by id.
func ItemsByOwner(ctx context.Context, q Querier, ownerID int64) ([]Item, error) {
	return queryItems(ctx, q, `SELECT id, title, description, owner_id FROM items WHERE owner_id = ? ORDER BY id`, ownerID)
}

func queryItems(ctx context.Context, q Querier, query string, args ...any) ([]Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err = rows.Scan(&it.ID, &it.Title, &it.Description, &it.OwnerID); err != nil {
			return nil, fmt.Errorf("read item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// CreateUserItem stores an item owned by ownerID.
// Returns [ErrNotFound] when the owner does not exist.
func CreateUserItem(ctx context.Context, q Querier, in ItemCreate, ownerID int64) (*Item, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO items (title, description, owner_id) VALUES (?, ?, ?)`, in.Title, in.Description, ownerID)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return nil, fmt.Errorf("owner: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("create item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	return &Item{ID: id, Title: in.Title, Description: in.Description, OwnerID: ownerID}, nil
}
