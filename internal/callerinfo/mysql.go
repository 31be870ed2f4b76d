package callerinfo

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/telephonyd/callnotifier/internal/telephony"
)

const contactsSchema = `CREATE TABLE IF NOT EXISTS contacts (
	number VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	custom_ringtone_uri VARCHAR(255),
	send_to_voicemail BOOLEAN NOT NULL DEFAULT FALSE,
	photo MEDIUMBLOB
)`

// MySQLSource resolves caller records from a contacts table. It also
// serves photo loads, using the contact number as the photo reference.
type MySQLSource struct {
	db *sql.DB
}

// OpenMySQL connects with the given DSN and bootstraps the contacts
// table.
func OpenMySQL(dsn string) (*MySQLSource, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening contacts database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to contacts database: %w", err)
	}
	if _, err := db.Exec(contactsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating contacts table: %w", err)
	}
	return &MySQLSource{db: db}, nil
}

func (s *MySQLSource) Query(ctx context.Context, number string) (*Record, error) {
	var (
		rec      Record
		ringtone sql.NullString
		hasPhoto bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, custom_ringtone_uri, send_to_voicemail, photo IS NOT NULL
		 FROM contacts WHERE number = ?`, number).
		Scan(&rec.Name, &ringtone, &rec.SendToVoicemail, &hasPhoto)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying contact %s: %w", number, err)
	}
	rec.Number = number
	rec.Presentation = telephony.PresentationAllowed
	rec.CustomRingtoneURI = ringtone.String
	if hasPhoto {
		rec.PhotoRef = number
	}
	return &rec, nil
}

func (s *MySQLSource) LoadPhoto(ctx context.Context, ref string) ([]byte, error) {
	var photo []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT photo FROM contacts WHERE number = ?`, ref).Scan(&photo)
	if err != nil {
		return nil, fmt.Errorf("loading contact photo %s: %w", ref, err)
	}
	return photo, nil
}

func (s *MySQLSource) Close() error {
	return s.db.Close()
}
