package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

const decisionLogSchema = `
CREATE TABLE IF NOT EXISTS decision_log (
	id           TEXT PRIMARY KEY,
	coin_id      TEXT NOT NULL,
	action       TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	stop_loss    DOUBLE PRECISION NOT NULL,
	target_price DOUBLE PRECISION NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS decision_log_created_at_idx ON decision_log (created_at DESC);
CREATE INDEX IF NOT EXISTS decision_log_coin_idx ON decision_log (coin_id, created_at DESC);
`

const decisionColumns = "id, coin_id, action, score, confidence, price, stop_loss, target_price, created_at"

// PostgresDecisionLog implements DecisionLog on PostgreSQL
type PostgresDecisionLog struct {
	db       *sql.DB
	dbConfig config.DatabaseConfig
}

// ConnectionString builds the lib/pq DSN for a database config
func ConnectionString(dbConfig config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Database,
		dbConfig.SSLMode,
	)
}

// NewPostgresDecisionLog connects, pings and creates the table if needed
func NewPostgresDecisionLog(ctx context.Context, dbConfig config.DatabaseConfig) (*PostgresDecisionLog, error) {
	db, err := sql.Open("postgres", ConnectionString(dbConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, decisionLogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create decision_log table: %w", err)
	}

	logger.Info("PostgreSQL decision log initialized",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)

	return &PostgresDecisionLog{db: db, dbConfig: dbConfig}, nil
}

// Record inserts a decision, ignoring duplicates
func (s *PostgresDecisionLog) Record(ctx context.Context, decision *models.LoggedDecision) error {
	if decision == nil {
		return fmt.Errorf("decision cannot be nil")
	}
	if err := decision.Validate(); err != nil {
		return fmt.Errorf("invalid decision: %w", err)
	}

	query := `INSERT INTO decision_log (` + decisionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		decision.ID,
		decision.CoinID,
		string(decision.Action),
		decision.Score,
		decision.Confidence,
		decision.Price,
		decision.StopLoss,
		decision.TargetPrice,
		decision.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision %s: %w", decision.ID, err)
	}
	return nil
}

// buildListQuery renders the filtered SELECT and its positional args
func buildListQuery(filter DecisionFilter) (string, []interface{}) {
	query := "SELECT " + decisionColumns + " FROM decision_log WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.CoinID != "" {
		query += fmt.Sprintf(" AND coin_id = $%d", argIndex)
		args = append(args, filter.CoinID)
		argIndex++
	}

	if !filter.CreatedBefore.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", argIndex)
		args = append(args, filter.CreatedBefore.UTC())
		argIndex++
	}

	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(" AND created_at > $%d", argIndex)
		args = append(args, filter.CreatedAfter.UTC())
		argIndex++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	return query, args
}

// List retrieves decisions with filtering options
func (s *PostgresDecisionLog) List(ctx context.Context, filter DecisionFilter) ([]*models.LoggedDecision, error) {
	query, args := buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*models.LoggedDecision
	for rows.Next() {
		var d models.LoggedDecision
		var action string
		if err := rows.Scan(
			&d.ID,
			&d.CoinID,
			&action,
			&d.Score,
			&d.Confidence,
			&d.Price,
			&d.StopLoss,
			&d.TargetPrice,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Action = models.Action(action)
		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return decisions, nil
}

// Count returns the number of recorded decisions
func (s *PostgresDecisionLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decision_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *PostgresDecisionLog) Close() error {
	return s.db.Close()
}
