// SPDX-License-Identifier: GPL-3.0-or-later
package mailsift

import (
	"fmt"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/log"
	"github.com/mailsift/mailsift/mail"

	"github.com/sirupsen/logrus"
)

const ClassifyConcurrency = 4

// DialFunc opens a fresh imap session. Every ingestion run gets its own
// session and tears it down unconditionally when the run ends.
type DialFunc func() (domain.ImapConnector, error)

type MailSift struct {
	persistence domain.Persistence
	categorizer domain.Categorizer
	dial        DialFunc

	configuration *configuration

	l *logrus.Logger
}

func NewMailSift(persistence domain.Persistence, categorizer domain.Categorizer, dial DialFunc, configFunc ...ConfigFunc) (*MailSift, error) {
	config := &configuration{
		Concurrency: ClassifyConcurrency,
	}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	return &MailSift{
		persistence:   persistence,
		categorizer:   categorizer,
		dial:          dial,
		configuration: config,
		l:             log.Logger(log.LOG_MAILSIFT),
	}, nil
}

// Run performs one ingestion pass over the inbox and returns the number of
// mails that were persisted. Failures to connect, select or search abort
// the run; failures on a single mail skip that mail and continue.
func (ms *MailSift) Run() (int, error) {
	conn, err := ms.dial()
	if err != nil {
		return 0, fmt.Errorf("could not connect to imap: %w", err)
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			ms.l.WithFields(logrus.Fields{"error": err}).Warn("Could not close imap session")
		}
	}()

	err = conn.SelectInbox()
	if err != nil {
		return 0, fmt.Errorf("could not select inbox: %w", err)
	}

	uids, err := conn.SearchUnseenSince(ms.configuration.Since)
	if err != nil {
		return 0, fmt.Errorf("could not search inbox: %w", err)
	}

	if len(uids) == 0 {
		ms.l.Info("No unread mails")
		return 0, nil
	}

	ms.l.WithFields(logrus.Fields{"unread": len(uids)}).Info("Found mails to ingest")

	mails, err := conn.FetchMails(uids)
	if err != nil {
		return 0, fmt.Errorf("could not fetch mails: %w", err)
	}

	// Parsing and categorization run concurrently; they never touch the
	// session. All session commands happen in the sequential pass below.
	results := ms.categorizeAll(mails)

	processed := 0
	for i, m := range mails {
		result := results[i]
		if result.Err != nil {
			ms.l.WithFields(logrus.Fields{"uid": m.Uid, "error": result.Err}).Warn("Skipping unparseable mail")
			continue
		}

		err := ms.persistence.SaveMail(domain.SaveMail{
			MessageId: result.Parsed.MessageId,
			Sender:    result.Parsed.Sender,
			Subject:   result.Parsed.Subject,
			Timestamp: result.Parsed.ReceivedAt.Unix(),
			Category:  result.Category,
		})
		if err != nil {
			ms.l.WithFields(logrus.Fields{"uid": m.Uid, "subject": mail.ShortSubject(result.Parsed.Subject), "error": err}).Warn("Could not save mail, skipping")
			continue
		}
		processed++

		ms.applyLabel(conn, m.Uid, result.Category, result.Parsed.Subject)

		err = conn.MarkSeen([]uint32{m.Uid})
		if err != nil {
			ms.l.WithFields(logrus.Fields{"uid": m.Uid, "error": err}).Warn("Could not mark mail seen")
		}

		ms.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(result.Parsed.Subject), "category": result.Category}).Info("Ingested mail")
	}

	return processed, nil
}

type pipelineResult struct {
	Parsed   *mail.ParsedMail
	Category string
	Err      error
}

func (ms *MailSift) categorizeAll(mails []*domain.RawImapMail) []*pipelineResult {
	semaphore := make(chan bool, ms.configuration.Concurrency)
	results := make([]*pipelineResult, len(mails))
	for i := 0; i < len(mails); i++ {
		semaphore <- true
		go func(index int) {
			results[index] = ms.process(mails[index])
			<-semaphore
		}(i)
	}

	for i := 0; i < ms.configuration.Concurrency; i++ {
		semaphore <- true
	}

	return results
}

func (ms *MailSift) process(raw *domain.RawImapMail) *pipelineResult {
	parsed, err := mail.Parse(raw.RawMail)
	if err != nil {
		return &pipelineResult{Err: err}
	}

	content := fmt.Sprintf("Subject: %s\nFrom: %s\nBody: %s", parsed.Subject, parsed.Sender, parsed.BodyText)
	return &pipelineResult{
		Parsed:   parsed,
		Category: ms.categorizer.Categorize(content),
	}
}
