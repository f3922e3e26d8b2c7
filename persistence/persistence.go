// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"errors"
	"fmt"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/log"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_emails",
			Up: []string{
				`CREATE TABLE emails (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					message_id TEXT UNIQUE,
					sender TEXT NOT NULL,
					subject TEXT,
					timestamp INTEGER NOT NULL,
					category TEXT NOT NULL DEFAULT 'Uncategorized'
				)`,
			},
			Down: []string{`DROP TABLE emails`},
		},
	},
}

type Persistence struct {
	db *sqlx.DB
	l  *logrus.Logger
}

func NewPersistence(datasource string) (*Persistence, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Info("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrationSource, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db: db,
		l:  l,
	}, nil
}

func (p *Persistence) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.Info("Disconnected")
	return nil
}

// SaveMail inserts one classified mail. A second insert with a message_id
// that is already stored is a no-op: the search window revisits messages
// whose seen-flag update raced with an earlier run, so the row is already
// there. A missing message_id is stored as NULL and never deduplicated.
func (p *Persistence) SaveMail(mail domain.SaveMail) error {
	var messageId interface{}
	if len(mail.MessageId) > 0 {
		messageId = mail.MessageId
	}

	_, err := p.db.Exec(
		"INSERT INTO emails (message_id, sender, subject, timestamp, category) VALUES (?, ?, ?, ?, ?)",
		messageId,
		mail.Sender,
		mail.Subject,
		mail.Timestamp,
		mail.Category,
	)

	if err != nil {
		if isUniqueViolation(err) {
			p.l.WithFields(logrus.Fields{"messageid": mail.MessageId}).Debug("Mail already ingested")
			return nil
		}
		return fmt.Errorf("could not save mail: %w", err)
	}

	return nil
}

func (p *Persistence) AllMails() ([]*domain.SavedMail, error) {
	dbMails := []struct {
		Id        int64
		MessageId string `db:"message_id"`
		Sender    string
		Subject   string
		Timestamp int64
		Category  string
	}{}

	err := p.db.Select(
		&dbMails,
		`SELECT id, COALESCE(message_id, '') AS message_id, sender, COALESCE(subject, '') AS subject, timestamp, category FROM emails ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	mails := []*domain.SavedMail{}
	for _, m := range dbMails {
		mails = append(
			mails,
			&domain.SavedMail{
				Id:        m.Id,
				MessageId: m.MessageId,
				Sender:    m.Sender,
				Subject:   m.Subject,
				Timestamp: m.Timestamp,
				Category:  m.Category,
			},
		)
	}

	p.l.WithField("Count", len(mails)).Debug("Found mails")

	return mails, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
