package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
)

const defaultHistoryLimit = 20

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = models.ErrRunNotFound

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS digest_runs (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		mode TEXT NOT NULL,
		input_count INTEGER NOT NULL,
		top_competitors TEXT,
		input_fingerprint TEXT,
		content TEXT NOT NULL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON digest_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_mode ON digest_runs(mode);

	CREATE TABLE IF NOT EXISTS run_insights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		update_id INTEGER NOT NULL,
		competitor TEXT NOT NULL,
		category TEXT NOT NULL,
		priority_score INTEGER NOT NULL,
		urgency_level TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES digest_runs(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_insights_run ON run_insights(run_id);
	CREATE INDEX IF NOT EXISTS idx_insights_competitor ON run_insights(competitor);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveDigest records a run and its ranked insights in one transaction.
func (c *Client) SaveDigest(ctx context.Context, digest *models.Digest) error {
	competitors := make([]string, 0, len(digest.Top))
	for _, r := range digest.Top {
		competitors = append(competitors, r.Competitor)
	}

	record := &models.RunRecord{
		ID:               digest.ID,
		Persona:          digest.Persona,
		Mode:             digest.Mode,
		InputCount:       digest.InputCount,
		TopCompetitors:   competitors,
		InputFingerprint: digest.InputFingerprint,
		Content:          digest.Content,
		LatencyMS:        digest.LatencyMS,
		CreatedAt:        digest.GeneratedAt,
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, record); err != nil {
		return err
	}

	for i, r := range digest.Top {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_insights (run_id, rank, update_id, competitor, category, priority_score, urgency_level) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			digest.ID, i+1, r.ID, r.Competitor, string(r.Category), r.PriorityScore, string(r.UrgencyLevel),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	logger.Debug("Digest run stored", zap.String("run_id", digest.ID), zap.Int("insights", len(digest.Top)))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRun(ctx context.Context, db execer, record *models.RunRecord) error {
	competitors, err := json.Marshal(record.TopCompetitors)
	if err != nil {
		return fmt.Errorf("failed to marshal competitors: %w", err)
	}

	query := `
		INSERT INTO digest_runs (id, persona, mode, input_count, top_competitors, input_fingerprint, content, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx,
		query,
		record.ID,
		record.Persona,
		string(record.Mode),
		record.InputCount,
		string(competitors),
		record.InputFingerprint,
		record.Content,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	logger.Info("Digest run recorded",
		zap.String("run_id", record.ID),
		zap.String("mode", string(record.Mode)),
		zap.Int("input_count", record.InputCount),
	)
	return nil
}

// ListRuns returns the most recent runs first. Content is left out.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, persona, mode, input_count, top_competitors, input_fingerprint, latency_ms, created_at
		FROM digest_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		var record models.RunRecord
		var mode string
		var competitors sql.NullString
		var fingerprint sql.NullString
		var latency sql.NullInt64
		var createdAt int64

		err := rows.Scan(&record.ID, &record.Persona, &mode, &record.InputCount, &competitors, &fingerprint, &latency, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		record.Mode = models.DigestMode(mode)
		record.InputFingerprint = fingerprint.String
		record.LatencyMS = int(latency.Int64)
		record.CreatedAt = time.Unix(createdAt, 0)
		if competitors.Valid && competitors.String != "" {
			if err := json.Unmarshal([]byte(competitors.String), &record.TopCompetitors); err != nil {
				logger.Warn("Failed to decode run competitors", zap.String("run_id", record.ID), zap.Error(err))
			}
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

const runColumns = `id, persona, mode, input_count, top_competitors, input_fingerprint, content, latency_ms, created_at`

// GetRun returns one run including its digest content.
func (c *Client) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM digest_runs WHERE id = ?`, id)
	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return record, nil
}

// LatestRun returns the newest run prepared for persona, or nil when there
// is none.
func (c *Client) LatestRun(ctx context.Context, persona string) (*models.RunRecord, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM digest_runs WHERE persona = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		persona,
	)
	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return record, nil
}

func scanRun(row *sql.Row) (*models.RunRecord, error) {
	var record models.RunRecord
	var mode string
	var competitors, fingerprint sql.NullString
	var latency sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&record.ID,
		&record.Persona,
		&mode,
		&record.InputCount,
		&competitors,
		&fingerprint,
		&record.Content,
		&latency,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.Mode = models.DigestMode(mode)
	record.InputFingerprint = fingerprint.String
	record.LatencyMS = int(latency.Int64)
	record.CreatedAt = time.Unix(createdAt, 0)
	if competitors.Valid && competitors.String != "" {
		if err := json.Unmarshal([]byte(competitors.String), &record.TopCompetitors); err != nil {
			logger.Warn("Failed to decode run competitors", zap.String("run_id", record.ID), zap.Error(err))
		}
	}
	return &record, nil
}

// CompetitorCounts reports how often each competitor reached a digest.
func (c *Client) CompetitorCounts(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT competitor, COUNT(*) FROM run_insights GROUP BY competitor`)
	if err != nil {
		return nil, fmt.Errorf("failed to count competitors: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan competitor count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
