package dataset

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// SQL driver names registered by the imported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidate_pairs (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	tag TEXT NOT NULL,
	product_commit TEXT NOT NULL,
	test_commit TEXT NOT NULL,
	product_file_path TEXT NOT NULL,
	test_file_path TEXT NOT NULL,
	product_old_content TEXT,
	product_new_content TEXT,
	test_old_content TEXT,
	test_new_content TEXT,
	refined_by TEXT,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_candidate_pairs_tag ON candidate_pairs(run_id, tag);
`

// pairRow is the stored form of a pair
type pairRow struct {
	RunID           string    `db:"run_id"`
	Seq             int       `db:"seq"`
	Tag             string    `db:"tag"`
	ProductCommit   string    `db:"product_commit"`
	TestCommit      string    `db:"test_commit"`
	ProductFilePath string    `db:"product_file_path"`
	TestFilePath    string    `db:"test_file_path"`
	ProductOld      *string   `db:"product_old_content"`
	ProductNew      *string   `db:"product_new_content"`
	TestOld         *string   `db:"test_old_content"`
	TestNew         *string   `db:"test_new_content"`
	RefinedBy       *string   `db:"refined_by"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r pairRow) pair() models.CandidatePair {
	return models.CandidatePair{
		Tag:             models.Tag(r.Tag),
		ProductCommit:   r.ProductCommit,
		TestCommit:      r.TestCommit,
		ProductFilePath: r.ProductFilePath,
		TestFilePath:    r.TestFilePath,
		ProductOld:      r.ProductOld,
		ProductNew:      r.ProductNew,
		TestOld:         r.TestOld,
		TestNew:         r.TestNew,
		RefinedBy:       models.Deref(r.RefinedBy),
	}
}

// SQLStore writes pairs to a candidate_pairs table in sqlite or postgres.
// Every store instance belongs to one run, identified by RunID.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	runID  string
	seq    int
	now    func() time.Time
	logger logrus.FieldLogger
}

// OpenSQL connects with driver and dsn and ensures the schema exists.
// An empty runID gets a fresh UUID.
func OpenSQL(driver, dsn, runID string, logger logrus.FieldLogger) (*SQLStore, error) {
	if driver == DriverSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.FileSystemErrorf(err, "create database directory")
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError(err, "connect to "+driver)
	}

	switch driver {
	case DriverSQLite:
		// A single connection keeps in-memory databases shared and
		// serializes writers.
		db.SetMaxOpenConns(1)
		db.Exec("PRAGMA journal_mode = WAL")
	case DriverPostgres:
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.DatabaseError(err, "init schema")
	}

	if runID == "" {
		runID = uuid.NewString()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		runID:  runID,
		now:    time.Now,
		logger: logger.WithField("run_id", runID),
	}, nil
}

// RunID identifies the rows written by this store
func (s *SQLStore) RunID() string { return s.runID }

// Write inserts pair as the next row of the run
func (s *SQLStore) Write(ctx context.Context, pair models.CandidatePair) error {
	row := pairRow{
		RunID:           s.runID,
		Seq:             s.seq,
		Tag:             string(pair.Tag),
		ProductCommit:   pair.ProductCommit,
		TestCommit:      pair.TestCommit,
		ProductFilePath: pair.ProductFilePath,
		TestFilePath:    pair.TestFilePath,
		ProductOld:      pair.ProductOld,
		ProductNew:      pair.ProductNew,
		TestOld:         pair.TestOld,
		TestNew:         pair.TestNew,
		CreatedAt:       s.now().UTC(),
	}
	if pair.RefinedBy != "" {
		row.RefinedBy = &pair.RefinedBy
	}

	query := `
		INSERT INTO candidate_pairs (run_id, seq, tag, product_commit, test_commit,
			product_file_path, test_file_path, product_old_content, product_new_content,
			test_old_content, test_new_content, refined_by, created_at)
		VALUES (:run_id, :seq, :tag, :product_commit, :test_commit,
			:product_file_path, :test_file_path, :product_old_content, :product_new_content,
			:test_old_content, :test_new_content, :refined_by, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.DatabaseError(err, "insert candidate pair").
			WithContext("commit", pair.ProductCommit).
			WithContext("test_commit", pair.TestCommit)
	}
	s.seq++
	return nil
}

// Pairs returns the rows of runID in insertion order
func (s *SQLStore) Pairs(ctx context.Context, runID string) ([]models.CandidatePair, error) {
	var rows []pairRow
	query := s.db.Rebind(`SELECT * FROM candidate_pairs WHERE run_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, errors.DatabaseError(err, "select candidate pairs")
	}

	out := make([]models.CandidatePair, len(rows))
	for i, r := range rows {
		out[i] = r.pair()
	}
	return out, nil
}

// CountByTag counts the rows of runID per tag
func (s *SQLStore) CountByTag(ctx context.Context, runID string) (map[models.Tag]int, error) {
	var rows []struct {
		Tag   string `db:"tag"`
		Count int    `db:"n"`
	}
	query := s.db.Rebind(`SELECT tag, COUNT(*) AS n FROM candidate_pairs WHERE run_id = ? GROUP BY tag`)
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, errors.DatabaseError(err, "count candidate pairs")
	}

	counts := make(map[models.Tag]int, len(rows))
	for _, r := range rows {
		counts[models.Tag(r.Tag)] = r.Count
	}
	return counts, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.WithField("rows", s.seq).Debug("closing dataset store")
	return s.db.Close()
}
