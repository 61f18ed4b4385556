/*
Package sqlite provides the SQLite-backed implementation of flow.Store.

PURPOSE:
  Persists flows, group summaries and books in a single SQLite database.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  flows:           The system of record for money movements
  flow_group_main: One editable summary row per merge group
  books:           Named flow collections per user

MONEY:
  Amounts are stored as decimal strings to keep exact values; range filters
  and money sorts go through CAST(money AS REAL), which is accurate for the
  comparison granularity these queries need.

SUMMARY DEGRADATION:
  The flow_group_main table is probed once on open. When it is missing
  (a partially provisioned database), SummaryAvailable reports false and
  every summary operation returns flow.ErrSummaryUnavailable; flow
  operations keep working.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/flows.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - flow/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/cashbook/flow-engine/flow"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every statement can
// run standalone or inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements flow.Store using SQLite.
type Store struct {
	db *sql.DB
	q  querier

	// summaryOK is probed once on open; false means the summary table is
	// missing and all summary operations report ErrSummaryUnavailable.
	summaryOK bool
}

// New creates a SQLite store at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time; a single pooled connection also
	// keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	store.summaryOK = store.probeSummaryTable()

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Flows (system of record)
	CREATE TABLE IF NOT EXISTS flows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		flow_type TEXT NOT NULL,
		industry_type TEXT NOT NULL DEFAULT '',
		pay_type TEXT NOT NULL DEFAULT '',
		money TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		attribution TEXT NOT NULL DEFAULT '',
		group_id TEXT,
		invoice TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		eliminate INTEGER NOT NULL DEFAULT 0
	);

	-- Listing hot path: one book, day-ordered
	CREATE INDEX IF NOT EXISTS idx_flows_book_day
		ON flows(book_id, day DESC, id DESC);

	-- Group membership lookups
	CREATE INDEX IF NOT EXISTS idx_flows_group
		ON flows(group_id) WHERE group_id IS NOT NULL;

	-- Group summaries (one editable row per merge group)
	CREATE TABLE IF NOT EXISTS flow_group_main (
		group_id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		flow_type TEXT NOT NULL,
		industry_type TEXT NOT NULL DEFAULT '',
		pay_type TEXT,
		money TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		attribution TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_group_main_book
		ON flow_group_main(book_id);

	-- Books
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		create_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_books_user
		ON books(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// probeSummaryTable checks once whether the summary table exists.
func (s *Store) probeSummaryTable() bool {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'flow_group_main'`,
	).Scan(&n)
	return err == nil && n > 0
}

// =============================================================================
// FLOW RECORDS
// =============================================================================

const flowColumns = `id, book_id, user_id, day, flow_type, industry_type, pay_type,
	money, name, description, attribution, group_id, invoice, origin, eliminate`

// CreateFlow inserts a new flow and returns it with its assigned id.
func (s *Store) CreateFlow(ctx context.Context, f flow.Flow) (flow.Flow, error) {
	query := `
		INSERT INTO flows
		(book_id, user_id, day, flow_type, industry_type, pay_type, money,
		 name, description, attribution, group_id, invoice, origin, eliminate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.q.ExecContext(ctx, query,
		f.BookID, f.UserID, f.Day, string(f.FlowType), f.IndustryType, f.PayType,
		f.Money.String(), f.Name, f.Description, f.Attribution,
		nullString(f.GroupID), f.Invoice, f.Origin, f.Eliminate,
	)
	if err != nil {
		return flow.Flow{}, fmt.Errorf("failed to insert flow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return flow.Flow{}, fmt.Errorf("failed to read inserted id: %w", err)
	}
	f.ID = id
	return f, nil
}

// RestoreFlow writes a flow under its known id, replacing the existing row
// if one is present.
func (s *Store) RestoreFlow(ctx context.Context, f flow.Flow) error {
	query := `
		INSERT INTO flows
		(id, book_id, user_id, day, flow_type, industry_type, pay_type, money,
		 name, description, attribution, group_id, invoice, origin, eliminate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book_id = excluded.book_id,
			user_id = excluded.user_id,
			day = excluded.day,
			flow_type = excluded.flow_type,
			industry_type = excluded.industry_type,
			pay_type = excluded.pay_type,
			money = excluded.money,
			name = excluded.name,
			description = excluded.description,
			attribution = excluded.attribution,
			group_id = excluded.group_id,
			invoice = excluded.invoice,
			origin = excluded.origin,
			eliminate = excluded.eliminate
	`

	_, err := s.q.ExecContext(ctx, query,
		f.ID, f.BookID, f.UserID, f.Day, string(f.FlowType), f.IndustryType, f.PayType,
		f.Money.String(), f.Name, f.Description, f.Attribution,
		nullString(f.GroupID), f.Invoice, f.Origin, f.Eliminate,
	)
	if err != nil {
		return fmt.Errorf("failed to restore flow: %w", err)
	}
	return nil
}

// GetFlow returns one flow, or nil when it does not exist in the book.
func (s *Store) GetFlow(ctx context.Context, bookID string, id int64) (*flow.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE book_id = ? AND id = ?`

	f, err := scanFlow(s.q.QueryRowContext(ctx, query, bookID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return &f, nil
}

// UpdateFlow applies a partial update and returns the updated flow, or nil
// when the flow does not exist.
func (s *Store) UpdateFlow(ctx context.Context, bookID string, id int64, upd flow.FlowUpdate) (*flow.Flow, error) {
	current, err := s.GetFlow(ctx, bookID, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	upd.Apply(current)
	if err := s.RestoreFlow(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteFlow removes one flow and returns the removed row, or nil when it
// was already absent.
func (s *Store) DeleteFlow(ctx context.Context, bookID string, id int64) (*flow.Flow, error) {
	f, err := s.GetFlow(ctx, bookID, id)
	if err != nil || f == nil {
		return nil, err
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM flows WHERE book_id = ? AND id = ?`, bookID, id); err != nil {
		return nil, fmt.Errorf("failed to delete flow: %w", err)
	}
	return f, nil
}

// DeleteFlows removes the given flows and reports how many rows went away.
func (s *Store) DeleteFlows(ctx context.Context, bookID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM flows WHERE book_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	res, err := s.q.ExecContext(ctx, query, append([]any{bookID}, int64Args(ids)...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete flows: %w", err)
	}
	return res.RowsAffected()
}

// DeleteGroupFlows removes every member of one group.
func (s *Store) DeleteGroupFlows(ctx context.Context, bookID, groupID string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM flows WHERE book_id = ? AND group_id = ?`, bookID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete group flows: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// QUERIES
// =============================================================================

// FindFlows returns every flow matching the filter, in the requested order.
func (s *Store) FindFlows(ctx context.Context, filter flow.Filter, sortBy flow.Sort) ([]flow.Flow, error) {
	where, args := compileFilter(filter)

	query := `SELECT ` + flowColumns + ` FROM flows WHERE ` + where + ` ORDER BY ` + compileSort(sortBy)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}
	defer rows.Close()
	return scanFlows(rows)
}

// FlowsByIDs returns the flows with the given ids that live in the book.
func (s *Store) FlowsByIDs(ctx context.Context, bookID string, ids []int64) ([]flow.Flow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + flowColumns + ` FROM flows
		WHERE book_id = ? AND id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := s.q.QueryContext(ctx, query, append([]any{bookID}, int64Args(ids)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows by ids: %w", err)
	}
	defer rows.Close()
	return scanFlows(rows)
}

// FlowsByGroup returns the current members of one group.
func (s *Store) FlowsByGroup(ctx context.Context, bookID, groupID string) ([]flow.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows
		WHERE book_id = ? AND group_id = ? ORDER BY day DESC, id DESC`
	rows, err := s.q.QueryContext(ctx, query, bookID, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group flows: %w", err)
	}
	defer rows.Close()
	return scanFlows(rows)
}

// CountFlows counts the user's flows in one book.
func (s *Store) CountFlows(ctx context.Context, bookID string, userID int64) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM flows WHERE book_id = ? AND user_id = ?`, bookID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count flows: %w", err)
	}
	return n, nil
}

// =============================================================================
// GROUP MEMBERSHIP
// =============================================================================

// SetGroupID assigns the given flows to a group.
func (s *Store) SetGroupID(ctx context.Context, bookID string, ids []int64, groupID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE flows SET group_id = ? WHERE book_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	res, err := s.q.ExecContext(ctx, query, append([]any{groupID, bookID}, int64Args(ids)...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to assign group: %w", err)
	}
	return res.RowsAffected()
}

// ClearGroupID detaches the given flows from whatever group they belong to.
// Flows that are already independent are not counted.
func (s *Store) ClearGroupID(ctx context.Context, bookID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE flows SET group_id = NULL
		WHERE book_id = ? AND group_id IS NOT NULL AND id IN (` + placeholders(len(ids)) + `)`
	res, err := s.q.ExecContext(ctx, query, append([]any{bookID}, int64Args(ids)...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear group membership: %w", err)
	}
	return res.RowsAffected()
}

// ClearGroup detaches every member of one group.
func (s *Store) ClearGroup(ctx context.Context, bookID, groupID string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE flows SET group_id = NULL WHERE book_id = ? AND group_id = ?`, bookID, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear group: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// GROUP SUMMARIES
// =============================================================================

// SummaryAvailable reports whether the summary table was present on open.
func (s *Store) SummaryAvailable() bool {
	return s.summaryOK
}

// GetSummary returns one group's summary, or nil when the group has none.
func (s *Store) GetSummary(ctx context.Context, groupID string) (*flow.GroupSummary, error) {
	if !s.summaryOK {
		return nil, flow.ErrSummaryUnavailable
	}

	query := `SELECT group_id, book_id, user_id, flow_type, industry_type, pay_type,
		money, name, description, attribution
		FROM flow_group_main WHERE group_id = ?`

	sm, err := scanSummary(s.q.QueryRowContext(ctx, query, groupID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &sm, nil
}

// SummariesByGroupIDs returns the summaries the book has for the given groups.
func (s *Store) SummariesByGroupIDs(ctx context.Context, bookID string, groupIDs []string) ([]flow.GroupSummary, error) {
	if !s.summaryOK {
		return nil, flow.ErrSummaryUnavailable
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}

	query := `SELECT group_id, book_id, user_id, flow_type, industry_type, pay_type,
		money, name, description, attribution
		FROM flow_group_main
		WHERE book_id = ? AND group_id IN (` + placeholders(len(groupIDs)) + `)`

	args := make([]any, 0, len(groupIDs)+1)
	args = append(args, bookID)
	for _, gid := range groupIDs {
		args = append(args, gid)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []flow.GroupSummary
	for rows.Next() {
		sm, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// UpsertSummary writes a group's summary, replacing any existing one.
func (s *Store) UpsertSummary(ctx context.Context, sm flow.GroupSummary) error {
	if !s.summaryOK {
		return flow.ErrSummaryUnavailable
	}

	query := `
		INSERT INTO flow_group_main
		(group_id, book_id, user_id, flow_type, industry_type, pay_type,
		 money, name, description, attribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET
			book_id = excluded.book_id,
			user_id = excluded.user_id,
			flow_type = excluded.flow_type,
			industry_type = excluded.industry_type,
			pay_type = excluded.pay_type,
			money = excluded.money,
			name = excluded.name,
			description = excluded.description,
			attribution = excluded.attribution
	`

	var payType sql.NullString
	if sm.PayType != nil {
		payType = sql.NullString{String: *sm.PayType, Valid: true}
	}
	_, err := s.q.ExecContext(ctx, query,
		sm.GroupID, sm.BookID, sm.UserID, string(sm.FlowType), sm.IndustryType,
		payType, sm.Money.String(), sm.Name, sm.Description, sm.Attribution,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}
	return nil
}

// DeleteSummary removes a group's summary; absent rows are a no-op.
func (s *Store) DeleteSummary(ctx context.Context, groupID string) error {
	if !s.summaryOK {
		return flow.ErrSummaryUnavailable
	}

	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM flow_group_main WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

// =============================================================================
// BOOKS
// =============================================================================

// ListBooks returns the user's books, oldest first.
func (s *Store) ListBooks(ctx context.Context, userID int64) ([]flow.Book, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, create_date FROM books WHERE user_id = ? ORDER BY create_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var out []flow.Book
	for rows.Next() {
		var b flow.Book
		var createDate string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &createDate); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.CreateDate, _ = time.Parse(time.RFC3339, createDate)
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBook inserts a book.
func (s *Store) CreateBook(ctx context.Context, b flow.Book) (flow.Book, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO books (id, user_id, name, create_date) VALUES (?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.CreateDate.UTC().Format(time.RFC3339))
	if err != nil {
		return flow.Book{}, fmt.Errorf("failed to insert book: %w", err)
	}
	return b, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction. The store handed
// to fn runs every statement on the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store flow.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		// Already inside a transaction; run on the same one.
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &Store{db: s.db, q: sqlTx, summaryOK: s.summaryOK}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// FILTER COMPILATION
// =============================================================================

// compileFilter renders the filter to a WHERE clause with bind args,
// mirroring flow.Filter.Matches.
func compileFilter(f flow.Filter) (string, []any) {
	conds := []string{"book_id = ?"}
	args := []any{f.BookID}

	add := func(cond string, a ...any) {
		conds = append(conds, cond)
		args = append(args, a...)
	}

	if f.ID != 0 {
		add("id = ?", f.ID)
	}
	if f.FlowType != "" {
		add("flow_type = ?", string(f.FlowType))
	}
	if f.IndustryType != "" {
		add("industry_type = ?", f.IndustryType)
	}
	if f.PayType != "" {
		add("pay_type = ?", f.PayType)
	}
	if f.StartDay != "" {
		add("day >= ?", f.StartDay)
	}
	if f.EndDay != "" {
		add("day <= ?", f.EndDay)
	}
	if f.Name != "" {
		add(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Name)+"%")
	}
	if f.Description != "" {
		add(`description LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Description)+"%")
	}
	if f.Attribution != "" {
		add(`attribution LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Attribution)+"%")
	}
	if f.MinMoney != nil {
		add("CAST(money AS REAL) >= ?", f.MinMoney.InexactFloat64())
	}
	if f.MaxMoney != nil {
		add("CAST(money AS REAL) <= ?", f.MaxMoney.InexactFloat64())
	}

	return strings.Join(conds, " AND "), args
}

// compileSort renders the sort to an ORDER BY clause, mirroring
// flow.Sort.Less.
func compileSort(s flow.Sort) string {
	switch {
	case s.MoneySort != "":
		return "CAST(money AS REAL) " + direction(s.MoneySort) + ", id DESC"
	case s.DaySort != "":
		return "day " + direction(s.DaySort) + ", id DESC"
	default:
		return "day DESC, id DESC"
	}
}

func direction(d flow.SortDir) string {
	if d == flow.SortAsc {
		return "ASC"
	}
	return "DESC"
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (flow.Flow, error) {
	var f flow.Flow
	var flowType, money string
	var groupID sql.NullString

	err := row.Scan(&f.ID, &f.BookID, &f.UserID, &f.Day, &flowType, &f.IndustryType,
		&f.PayType, &money, &f.Name, &f.Description, &f.Attribution,
		&groupID, &f.Invoice, &f.Origin, &f.Eliminate)
	if err != nil {
		return flow.Flow{}, err
	}

	f.FlowType = flow.FlowType(flowType)
	f.GroupID = groupID.String
	f.Money, err = decimal.NewFromString(money)
	if err != nil {
		return flow.Flow{}, fmt.Errorf("corrupt money value %q: %w", money, err)
	}
	return f, nil
}

func scanFlows(rows *sql.Rows) ([]flow.Flow, error) {
	var out []flow.Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanSummary(row rowScanner) (flow.GroupSummary, error) {
	var sm flow.GroupSummary
	var flowType, money string
	var payType sql.NullString

	err := row.Scan(&sm.GroupID, &sm.BookID, &sm.UserID, &flowType, &sm.IndustryType,
		&payType, &money, &sm.Name, &sm.Description, &sm.Attribution)
	if err != nil {
		return flow.GroupSummary{}, err
	}

	sm.FlowType = flow.FlowType(flowType)
	if payType.Valid {
		sm.PayType = &payType.String
	}
	sm.Money, err = decimal.NewFromString(money)
	if err != nil {
		return flow.GroupSummary{}, fmt.Errorf("corrupt money value %q: %w", money, err)
	}
	return sm, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
