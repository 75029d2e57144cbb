package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // driver

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
)

// SQLiteRecorder persists snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logger.Logger
}

// NewSQLiteRecorder opens (or creates) the database at path and runs migrations.
func NewSQLiteRecorder(ctx context.Context, path string, log logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while the scheduler writes.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info(ctx, "sqlite recorder opened", logger.String("path", path))
	return r, nil
}

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			generated_at INTEGER NOT NULL,
			cutoff       INTEGER NOT NULL,
			pages        INTEGER NOT NULL,
			sales        INTEGER NOT NULL,
			rounds       INTEGER NOT NULL,
			members      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at)`,

		`CREATE TABLE IF NOT EXISTS balances (
			run_id  TEXT NOT NULL REFERENCES runs(run_id),
			member  TEXT NOT NULL,
			points  INTEGER NOT NULL,
			balance REAL NOT NULL,
			PRIMARY KEY (run_id, member)
		)`,

		`CREATE TABLE IF NOT EXISTS sales (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL REFERENCES runs(run_id),
			player_id INTEGER NOT NULL,
			seller    TEXT NOT NULL,
			buyer     TEXT NOT NULL,
			amount    INTEGER NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_run ON sales(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", truncate(s, 40), err)
		}
	}
	return nil
}

// RecordReport stores the run header, its balance table and its sales in
// one transaction.
func (r *SQLiteRecorder) RecordReport(ctx context.Context, rep *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID := rep.RunID.String()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, generated_at, cutoff, pages, sales, rounds, members)
		VALUES (?,?,?,?,?,?,?)`,
		runID, rep.GeneratedAt.Unix(), rep.Cutoff.Unix(), rep.Pages,
		len(rep.Sales), len(rep.Rounds), len(rep.Balance),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, b := range rep.Balance {
		if _, err := tx.ExecContext(ctx, `INSERT INTO balances
			(run_id, member, points, balance) VALUES (?,?,?,?)`,
			runID, b.Member, b.Points, b.Balance,
		); err != nil {
			return fmt.Errorf("insert balance %s: %w", b.Member, err)
		}
	}

	for _, s := range rep.Sales {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sales
			(run_id, player_id, seller, buyer, amount, timestamp) VALUES (?,?,?,?,?,?)`,
			runID, s.PlayerID, s.Seller, s.Buyer, s.Amount, s.Timestamp,
		); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug(ctx, "report recorded",
		logger.String("runID", runID),
		logger.Int("members", len(rep.Balance)),
		logger.Int("sales", len(rep.Sales)),
	)
	return nil
}

// Runs returns the latest snapshots, newest first.
func (r *SQLiteRecorder) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, generated_at, cutoff, pages, sales, rounds, members
		FROM runs ORDER BY generated_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []RunSummary{}
	for rows.Next() {
		var (
			s                 RunSummary
			generated, cutoff int64
		)
		if err := rows.Scan(&s.RunID, &generated, &cutoff, &s.Pages, &s.Sales, &s.Rounds, &s.Members); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.GeneratedAt = time.Unix(generated, 0).UTC()
		s.Cutoff = time.Unix(cutoff, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Balances returns the balance table stored for a run, sorted by member.
// An unknown run yields ErrRunNotFound.
func (r *SQLiteRecorder) Balances(ctx context.Context, runID string) ([]model.BalanceRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT member, points, balance FROM balances
		WHERE run_id = ? ORDER BY member`, runID)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.BalanceRow{}
	for rows.Next() {
		var b model.BalanceRow
		if err := rows.Scan(&b.Member, &b.Points, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	if len(out) == 0 {
		var n int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
			return nil, fmt.Errorf("query run: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info(context.Background(), "closing sqlite recorder")
	return r.db.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
