// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/persistence.go -package=mocks . Persistence
const UncategorizedLabel = "Uncategorized"

type SavedMail struct {
	Id        int64
	MessageId string
	Sender    string
	Subject   string
	Timestamp int64
	Category  string
}

// SaveMail is one classified message. An empty MessageId means the source
// message carried no Message-Id header; such rows cannot be deduplicated.
type SaveMail struct {
	MessageId string
	Sender    string
	Subject   string
	Timestamp int64
	Category  string
}

type Persistence interface {
	Close() error
	SaveMail(mail SaveMail) error
	AllMails() ([]*SavedMail, error)
}
