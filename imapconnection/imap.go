// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

const (
	Inbox          = "INBOX"
	CommandTimeout = 30 * time.Second
)

type ImapConnection struct {
	connection *client.Client

	server, user, password string

	l *logrus.Logger
}

func NewImapConnection(server string, user string, password string) (*ImapConnection, error) {
	imapClient, err := client.DialTLS(server, nil)
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}

	err = imapClient.Login(user, password)
	if err != nil {
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	// A stalled command would otherwise block an ingestion run forever
	imapClient.Timeout = CommandTimeout

	conn := &ImapConnection{
		connection: imapClient,
		server:     server,
		user:       user,
		password:   password,
		l:          log.Logger(log.LOG_IMAP),
	}

	conn.l.WithFields(logrus.Fields{"server": server}).Debug("Logged in to server")

	return conn, nil
}

func (ic *ImapConnection) SelectInbox() error {
	_, err := ic.connection.Select(Inbox, false)
	if err != nil {
		return fmt.Errorf("could not select inbox: %w", err)
	}

	return nil
}

func (ic *ImapConnection) SearchUnseenSince(since time.Time) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = since

	ids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search for unseen mails: %w", err)
	}

	return ids, nil
}

func (ic *ImapConnection) FetchMails(uids []uint32) ([]*domain.RawImapMail, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}

	fetchItems := []imap.FetchItem{fullBodySection.FetchItem()}
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	mails := []*domain.RawImapMail{}
	for msg := range messages {
		r := msg.GetBody(fullBodySection)
		if r == nil {
			return nil, fmt.Errorf("fetched message %d has no body section", msg.Uid)
		}
		rawBody, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("could not read mail body: %w", err)
		}

		mails = append(
			mails,
			&domain.RawImapMail{
				Uid:     msg.Uid,
				RawMail: rawBody,
			},
		)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}

	return mails, nil
}

// EnsureFolder creates folder on the server. The server rejecting the
// create because the folder is already there counts as success.
func (ic *ImapConnection) EnsureFolder(folder string) error {
	err := ic.connection.Create(folder)
	if err == nil {
		return nil
	}

	if isAlreadyExists(err) {
		ic.l.WithFields(logrus.Fields{"folder": folder}).Debug("Folder exists on server")
		return nil
	}

	return fmt.Errorf("could not create folder %s: %w", folder, err)
}

func (ic *ImapConnection) Copy(uids []uint32, folder string) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	err := ic.connection.UidCopy(seqset, folder)
	if err != nil {
		return fmt.Errorf("could not copy mails to %s: %w", folder, err)
	}

	return nil
}

func (ic *ImapConnection) MarkSeen(uids []uint32) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	err := ic.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.SeenFlag}, nil)
	if err != nil {
		return fmt.Errorf("could not set seen flag: %w", err)
	}

	return nil
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}

func isAlreadyExists(err error) bool {
	text := strings.ToUpper(err.Error())
	return strings.Contains(text, "ALREADYEXISTS") || strings.Contains(text, "ALREADY EXISTS")
}
