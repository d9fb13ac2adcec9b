// Package storage persists users, categories, transactions and
// notifications in SQLite. Every query is scoped to an owner id; amounts
// travel as TEXT so they stay exact.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// User is an account record. The core never sees it; identity reaches the
// core only as an owner id plus display email.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Notification is a stored advice message produced by the worker.
type Notification struct {
	ID            int64     `json:"id"`
	OwnerID       string    `json:"-"`
	TransactionID string    `json:"transactionId"`
	AdviceClass   string    `json:"adviceClass"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, core.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// --- categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, type) VALUES (?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, string(c.Type))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateName
		}
		return fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"category_id", c.ID, "user_id", c.OwnerID, "category_name", c.Name)
	return nil
}

// GetCategory is the strict lookup: it fails with ErrNotFound when the
// category does not exist or belongs to another owner.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id, ownerID string) (core.Category, error) {
	var c core.Category
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, type FROM categories WHERE id = ? AND owner_id = ?`,
		id, ownerID).Scan(&c.ID, &c.OwnerID, &c.Name, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.TransactionType(typ)
	return c, nil
}

// ListCategories returns one owner's categories ordered by name. An empty
// type lists both kinds.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error) {
	query := `SELECT id, owner_id, name, type FROM categories WHERE owner_id = ?`
	args := []any{ownerID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var t string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &t); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(t)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ? WHERE id = ? AND owner_id = ?`,
		c.Name, string(c.Type), c.ID, c.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateName
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, "update category")
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, "delete category")
}

func (r *SQLiteRepository) CategoryExists(ctx context.Context, ownerID, name string, typ core.TransactionType) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM categories WHERE owner_id = ? AND name = ? AND type = ?`,
		ownerID, name, string(typ)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category exists: %w", err)
	}
	return n > 0, nil
}

// CategoryName is the tolerant lookup used on the aggregation path: a
// missing category is reported as not found, never as an error. Query
// failures are logged and also reported as not found, matching the
// contract that aggregation never fails on data content.
func (r *SQLiteRepository) CategoryName(ctx context.Context, categoryID string) (string, bool) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE id = ?`, categoryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.ErrorContext(ctx, "Category name lookup failed",
			"category_id", categoryID, "error", err)
		return "", false
	}
	return name, true
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, category_id, amount, type, description, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, nullable(t.CategoryID), t.Amount.String(), string(t.Type),
		t.Description, t.Date.String())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"user_id", t.OwnerID,
		"transaction_type", string(t.Type),
		"amount", t.Amount.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, ownerID string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category_id, amount, type, description, date
		 FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET category_id = ?, amount = ?, type = ?, description = ?, date = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		nullable(t.CategoryID), t.Amount.String(), string(t.Type), t.Description,
		t.Date.String(), t.ID, t.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "update transaction")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "delete transaction")
}

// ListTransactions returns the owner's transactions newest first, narrowed
// by the filter. The filter's semantics live in core; the query only
// scopes by owner.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, f core.Filter) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, category_id, amount, type, description, date
		 FROM transactions WHERE owner_id = ?
		 ORDER BY date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var all []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		all = append(all, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return f.Apply(all), nil
}

// ListOwnerIDs returns every registered user id, for batch jobs that walk
// all owners.
func (r *SQLiteRepository) ListOwnerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list owner ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- notifications ---

func (r *SQLiteRepository) AddNotification(ctx context.Context, n Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (owner_id, transaction_id, advice_class, message)
		 VALUES (?, ?, ?, ?)`,
		n.OwnerID, n.TransactionID, n.AdviceClass, n.Message)
	if err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	return nil
}

// NotificationExists reports whether a notification with this transaction
// id marker already exists for the owner. Batch jobs use it to stay
// idempotent across restarts.
func (r *SQLiteRepository) NotificationExists(ctx context.Context, ownerID, transactionID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE owner_id = ? AND transaction_id = ?`,
		ownerID, transactionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, ownerID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, transaction_id, advice_class, message, created_at
		 FROM notifications WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.TransactionID, &n.AdviceClass, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		category sql.NullString
		amount   string
		typ      string
		date     string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &category, &amount, &typ, &t.Description, &date); err != nil {
		return core.Transaction{}, err
	}

	t.CategoryID = category.String
	t.Type = core.TransactionType(typ)

	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("bad stored amount %q: %w", amount, err)
	}
	t.Amount = m

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("bad stored date %q: %w", date, err)
	}
	t.Date = d

	return t, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
