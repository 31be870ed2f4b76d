package calllog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const schema = `CREATE TABLE IF NOT EXISTS call_log (
	id VARCHAR(36) PRIMARY KEY,
	number VARCHAR(64) NOT NULL,
	name VARCHAR(255),
	presentation VARCHAR(16) NOT NULL,
	type VARCHAR(16) NOT NULL,
	cause VARCHAR(32) NOT NULL,
	start TIMESTAMP NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_type (type),
	INDEX idx_start (start)
)`

// MySQLStore persists call records to MySQL.
type MySQLStore struct {
	db  *sql.DB
	log *logrus.Entry
}

// OpenMySQL connects with the given DSN (parseTime=true required) and
// bootstraps the schema.
func OpenMySQL(dsn string, log *logrus.Entry) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening call log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to call log database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating call_log table: %w", err)
	}
	return &MySQLStore{db: db, log: log}, nil
}

func (s *MySQLStore) Log(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_log (id, number, name, presentation, type, cause, start, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Number, rec.Name, rec.Presentation.String(), rec.Type.String(),
		rec.Cause.String(), rec.Start, rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("inserting call log entry: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"type":   rec.Type.String(),
		"number": rec.Number,
	}).Debug("call logged")
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
