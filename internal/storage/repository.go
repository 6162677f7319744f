package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"warchest/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the run log, the spending event queue, the
// per-currency income configs and the worker's cached derived values.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
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

// AppendRun stores one play session and returns its ID.
func (r *SQLiteRepository) AppendRun(ctx context.Context, run core.Run) (int64, error) {
	fields, err := json.Marshal(run.Fields)
	if err != nil {
		return 0, fmt.Errorf("marshal run fields: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (run_at, fields) VALUES (?, ?)`,
		run.RunAt.UTC(), string(fields))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run insert id: %w", err)
	}

	slog.InfoContext(ctx, "Run saved", "id", id, "run_at", run.RunAt)
	return id, nil
}

// GetRun fetches a single run by ID.
func (r *SQLiteRepository) GetRun(ctx context.Context, id int64) (*core.Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, run_at, fields FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the full run log ordered oldest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context) ([]core.Run, error) {
	return r.listRuns(ctx,
		`SELECT id, run_at, fields FROM runs ORDER BY run_at, id`)
}

// ListRunsSince returns runs at or after the given instant, oldest first.
func (r *SQLiteRepository) ListRunsSince(ctx context.Context, since time.Time) ([]core.Run, error) {
	return r.listRuns(ctx,
		`SELECT id, run_at, fields FROM runs WHERE run_at >= ? ORDER BY run_at, id`,
		since.UTC())
}

func (r *SQLiteRepository) listRuns(ctx context.Context, query string, args ...any) ([]core.Run, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var run core.Run
	var fields string
	if err := row.Scan(&run.ID, &run.RunAt, &fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &run.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal run fields: %w", err)
	}
	return &run, nil
}

// DeleteRun removes a run from the log.
func (r *SQLiteRepository) DeleteRun(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	slog.InfoContext(ctx, "Run deleted", "id", id)
	return nil
}

// CreateEvent stores a spending event and returns its ID.
func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.SpendingEvent) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO spending_events (name, currency, amount, trigger_week, duration_days, priority)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, string(e.Currency), e.Amount, e.TriggerWeek, e.DurationDays, e.Priority)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event insert id: %w", err)
	}

	slog.InfoContext(ctx, "Spending event saved",
		"id", id,
		"name", e.Name,
		"currency", e.Currency,
		"amount", e.Amount,
		"trigger_week", e.TriggerWeek)
	return id, nil
}

// ListEvents returns the event queue ordered by trigger week then priority.
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.SpendingEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, amount, trigger_week, duration_days, priority
		 FROM spending_events ORDER BY trigger_week, priority, id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []core.SpendingEvent
	for rows.Next() {
		var e core.SpendingEvent
		var currency string
		if err := rows.Scan(&e.ID, &e.Name, &currency, &e.Amount, &e.TriggerWeek, &e.DurationDays, &e.Priority); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Currency = core.CurrencyID(currency)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes one event from the queue.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spending_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClearEvents empties the event queue.
func (r *SQLiteRepository) ClearEvents(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM spending_events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	slog.InfoContext(ctx, "Event queue cleared")
	return nil
}

// ListIncomeConfigs returns every stored per-currency config.
func (r *SQLiteRepository) ListIncomeConfigs(ctx context.Context) ([]core.IncomeConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, balance, weekly_income, growth_rate, source FROM income_configs`)
	if err != nil {
		return nil, fmt.Errorf("query income configs: %w", err)
	}
	defer rows.Close()

	var configs []core.IncomeConfig
	for rows.Next() {
		var cfg core.IncomeConfig
		var currency, source string
		if err := rows.Scan(&currency, &cfg.Balance, &cfg.WeeklyIncome, &cfg.GrowthRatePercent, &source); err != nil {
			return nil, fmt.Errorf("scan income config: %w", err)
		}
		cfg.Currency = core.CurrencyID(currency)
		cfg.Source = core.IncomeSource(source)
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate income configs: %w", err)
	}
	return configs, nil
}

// UpsertIncomeConfig stores or replaces a currency's config.
func (r *SQLiteRepository) UpsertIncomeConfig(ctx context.Context, cfg core.IncomeConfig) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO income_configs (currency, balance, weekly_income, growth_rate, source, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(currency) DO UPDATE SET
		   balance = excluded.balance,
		   weekly_income = excluded.weekly_income,
		   growth_rate = excluded.growth_rate,
		   source = excluded.source,
		   updated_at = CURRENT_TIMESTAMP`,
		string(cfg.Currency), cfg.Balance, cfg.WeeklyIncome, cfg.GrowthRatePercent, string(cfg.Source))
	if err != nil {
		return fmt.Errorf("upsert income config: %w", err)
	}

	slog.InfoContext(ctx, "Income config saved",
		"currency", cfg.Currency,
		"balance", cfg.Balance,
		"weekly_income", cfg.WeeklyIncome,
		"source", cfg.Source)
	return nil
}

// DerivedValue is the worker's cached derivation result for one currency.
type DerivedValue struct {
	Currency     core.CurrencyID `json:"currency"`
	WeeklyIncome int64           `json:"weekly_income"`
	GrowthRate   float64         `json:"growth_rate"`
	DaysOfData   int             `json:"days_of_data"`
	WeeksOfData  int             `json:"weeks_of_data"`
	DerivedAt    time.Time       `json:"derived_at"`
}

// UpsertDerivedValue stores the latest derivation result for a currency.
func (r *SQLiteRepository) UpsertDerivedValue(ctx context.Context, v DerivedValue) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO derived_values (currency, weekly_income, growth_rate, days_of_data, weeks_of_data, derived_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(currency) DO UPDATE SET
		   weekly_income = excluded.weekly_income,
		   growth_rate = excluded.growth_rate,
		   days_of_data = excluded.days_of_data,
		   weeks_of_data = excluded.weeks_of_data,
		   derived_at = excluded.derived_at`,
		string(v.Currency), v.WeeklyIncome, v.GrowthRate, v.DaysOfData, v.WeeksOfData, v.DerivedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert derived value: %w", err)
	}
	return nil
}

// ListDerivedValues returns the cached derivation results.
func (r *SQLiteRepository) ListDerivedValues(ctx context.Context) ([]DerivedValue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, weekly_income, growth_rate, days_of_data, weeks_of_data, derived_at
		 FROM derived_values`)
	if err != nil {
		return nil, fmt.Errorf("query derived values: %w", err)
	}
	defer rows.Close()

	var values []DerivedValue
	for rows.Next() {
		var v DerivedValue
		var currency string
		if err := rows.Scan(&currency, &v.WeeklyIncome, &v.GrowthRate, &v.DaysOfData, &v.WeeksOfData, &v.DerivedAt); err != nil {
			return nil, fmt.Errorf("scan derived value: %w", err)
		}
		v.Currency = core.CurrencyID(currency)
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derived values: %w", err)
	}
	return values, nil
}
