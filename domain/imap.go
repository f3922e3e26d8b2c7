// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

//go:generate mockgen -destination=mocks/imap.go -package=mocks . ImapConnector
type RawImapMail struct {
	Uid     uint32
	RawMail []byte
}

type ImapConnector interface {
	SelectInbox() error
	SearchUnseenSince(since time.Time) ([]uint32, error)
	FetchMails(uids []uint32) ([]*RawImapMail, error)
	EnsureFolder(folder string) error
	Copy(uids []uint32, folder string) error
	MarkSeen(uids []uint32) error

	Close() error
}
