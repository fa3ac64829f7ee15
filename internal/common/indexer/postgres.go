package indexer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	_ "github.com/lib/pq"

	"github.com/project-tktt/salary-stats/internal/domain"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresIndexer stores term snapshots in PostgreSQL
type PostgresIndexer struct {
	db        *sql.DB
	tableName string
	logger    *slog.Logger
}

// NewPostgresIndexer opens a connection and makes sure the snapshot table exists
func NewPostgresIndexer(connStr, tableName string, logger *slog.Logger) (*PostgresIndexer, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	indexer := &PostgresIndexer{
		db:        db,
		tableName: tableName,
		logger:    logger.With("component", "postgres"),
	}

	if err := indexer.ensureTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}

	return indexer, nil
}

// ensureTable creates the snapshots table if it doesn't exist
func (i *PostgresIndexer) ensureTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			term TEXT NOT NULL,
			vacancies_found INTEGER NOT NULL,
			vacancies_processed INTEGER NOT NULL,
			average_salary INTEGER,
			collected_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS %[1]s_source_term_idx ON %[1]s (source, term, collected_at DESC);
	`, i.tableName)

	_, err := i.db.Exec(query)
	return err
}

func (i *PostgresIndexer) upsertQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %s (
			id, run_id, source, term,
			vacancies_found, vacancies_processed, average_salary, collected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			vacancies_found = EXCLUDED.vacancies_found,
			vacancies_processed = EXCLUDED.vacancies_processed,
			average_salary = EXCLUDED.average_salary,
			collected_at = EXCLUDED.collected_at
	`, i.tableName)
}

// BulkIndex upserts snapshots in a single transaction
func (i *PostgresIndexer) BulkIndex(ctx context.Context, snapshots []*domain.TermSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, i.upsertQuery())
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		_, err := stmt.ExecContext(ctx,
			s.ID, s.RunID, s.Source, s.Term,
			s.VacanciesFound, s.VacanciesProcessed, nullInt(s.AverageSalary), s.CollectedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	i.logger.Debug("snapshots stored", "count", len(snapshots))
	return nil
}

// Close closes the database connection
func (i *PostgresIndexer) Close() error {
	return i.db.Close()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
