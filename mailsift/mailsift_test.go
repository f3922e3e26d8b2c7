// SPDX-License-Identifier: GPL-3.0-or-later
package mailsift

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/domain/mocks"
	"github.com/mailsift/mailsift/log"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	log.InitLogging("error")
	os.Exit(m.Run())
}

var testCutoff = time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC)

func rawMail(subject, from, messageId string) []byte {
	lines := []string{
		"From: " + from,
		"Subject: " + subject,
		"Date: Tue, 31 Dec 2024 10:00:00 +0000",
	}
	if len(messageId) > 0 {
		lines = append(lines, "Message-Id: "+messageId)
	}
	lines = append(lines, "", "Your invoice is due.")
	return []byte(strings.Join(lines, "\r\n"))
}

func setup(t *testing.T) (*gomock.Controller, *MailSift, *mocks.MockPersistence, *mocks.MockCategorizer, *mocks.MockImapConnector) {
	ctrl := gomock.NewController(t)

	persistence := mocks.NewMockPersistence(ctrl)
	categorizer := mocks.NewMockCategorizer(ctrl)
	imapConnection := mocks.NewMockImapConnector(ctrl)

	dial := func() (domain.ImapConnector, error) {
		return imapConnection, nil
	}

	sifter, err := NewMailSift(persistence, categorizer, dial, SinceDate(testCutoff))
	assert.NoError(t, err)

	return ctrl, sifter, persistence, categorizer, imapConnection
}

func TestNewMailSift(t *testing.T) {
	tests := []struct {
		name string
		cfgs []ConfigFunc
		err  string
	}{
		{"ok", []ConfigFunc{SinceDate(testCutoff), Concurrency(2)}, ""},
		{"zerosince", []ConfigFunc{SinceDate(time.Time{})}, "error applying configuration: SinceDate cannot be the zero time"},
		{"badconcurrency", []ConfigFunc{Concurrency(0)}, "error applying configuration: Concurrency must be at least 1, got 0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sifter, err := NewMailSift(nil, nil, nil, tc.cfgs...)
			if len(tc.err) == 0 {
				assert.NotNil(t, sifter)
				assert.NoError(t, err)
			} else {
				assert.Nil(t, sifter)
				assert.EqualError(t, err, tc.err)
			}
		})
	}
}

func TestRun_SingleMail(t *testing.T) {
	ctrl, sifter, persistence, categorizer, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Eq(testCutoff)).Return([]uint32{7}, nil)
	imapConnection.EXPECT().FetchMails(gomock.Eq([]uint32{7})).Return([]*domain.RawImapMail{
		{Uid: 7, RawMail: rawMail("Invoice #100", "billing@x.com", "<invoice-100@x.com>")},
	}, nil)

	categorizer.EXPECT().Categorize(gomock.Any()).DoAndReturn(func(content string) string {
		assert.Contains(t, content, "Subject: Invoice #100")
		assert.Contains(t, content, "From: billing@x.com")
		assert.Contains(t, content, "Your invoice is due.")
		return "Finance"
	})

	persistence.EXPECT().SaveMail(gomock.Any()).DoAndReturn(func(m domain.SaveMail) error {
		assert.Equal(t, "<invoice-100@x.com>", m.MessageId)
		assert.Equal(t, "billing@x.com", m.Sender)
		assert.Equal(t, "Invoice #100", m.Subject)
		assert.Equal(t, time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC).Unix(), m.Timestamp)
		assert.Equal(t, "Finance", m.Category)
		return nil
	})

	imapConnection.EXPECT().EnsureFolder(gomock.Eq("Finance")).Return(nil)
	imapConnection.EXPECT().Copy(gomock.Eq([]uint32{7}), gomock.Eq("Finance")).Return(nil)
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{7})).Return(nil)
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestRun_NoMatches(t *testing.T) {
	ctrl, sifter, _, _, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Eq(testCutoff)).Return([]uint32{}, nil)
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestRun_DialError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dial := func() (domain.ImapConnector, error) {
		return nil, errors.New("connection refused")
	}

	sifter, err := NewMailSift(mocks.NewMockPersistence(ctrl), mocks.NewMockCategorizer(ctrl), dial, SinceDate(testCutoff))
	assert.NoError(t, err)

	processed, err := sifter.Run()
	assert.EqualError(t, err, "could not connect to imap: connection refused")
	assert.Equal(t, 0, processed)
}

func TestRun_SearchErrorClosesSession(t *testing.T) {
	ctrl, sifter, _, _, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Any()).Return(nil, errors.New("broken pipe"))
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.EqualError(t, err, "could not search inbox: broken pipe")
	assert.Equal(t, 0, processed)
}

func TestRun_StorageErrorSkipsMail(t *testing.T) {
	ctrl, sifter, persistence, categorizer, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Any()).Return([]uint32{1, 2, 3}, nil)
	imapConnection.EXPECT().FetchMails(gomock.Eq([]uint32{1, 2, 3})).Return([]*domain.RawImapMail{
		{Uid: 1, RawMail: rawMail("one", "a@x.com", "<1@x>")},
		{Uid: 2, RawMail: rawMail("two", "b@x.com", "<2@x>")},
		{Uid: 3, RawMail: rawMail("three", "c@x.com", "<3@x>")},
	}, nil)

	categorizer.EXPECT().Categorize(gomock.Any()).Return("Work").Times(3)

	persistence.EXPECT().SaveMail(gomock.Any()).DoAndReturn(func(m domain.SaveMail) error {
		if m.Subject == "two" {
			return fmt.Errorf("could not save mail: disk I/O error")
		}
		return nil
	}).Times(3)

	// only the two persisted mails get labeled and flagged
	imapConnection.EXPECT().EnsureFolder(gomock.Eq("Work")).Return(nil).Times(2)
	imapConnection.EXPECT().Copy(gomock.Eq([]uint32{1}), gomock.Eq("Work")).Return(nil)
	imapConnection.EXPECT().Copy(gomock.Eq([]uint32{3}), gomock.Eq("Work")).Return(nil)
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{1})).Return(nil)
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{3})).Return(nil)
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 2, processed)
}

func TestRun_ParseErrorSkipsMail(t *testing.T) {
	ctrl, sifter, persistence, categorizer, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Any()).Return([]uint32{1, 2}, nil)
	imapConnection.EXPECT().FetchMails(gomock.Eq([]uint32{1, 2})).Return([]*domain.RawImapMail{
		{Uid: 1, RawMail: []byte("not a mail")},
		{Uid: 2, RawMail: rawMail("ok", "a@x.com", "<2@x>")},
	}, nil)

	categorizer.EXPECT().Categorize(gomock.Any()).Return("Personal")

	persistence.EXPECT().SaveMail(gomock.Any()).Return(nil)

	imapConnection.EXPECT().EnsureFolder(gomock.Eq("Personal")).Return(nil)
	imapConnection.EXPECT().Copy(gomock.Eq([]uint32{2}), gomock.Eq("Personal")).Return(nil)
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{2})).Return(nil)
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestRun_LabelFailureDoesNotReduceCount(t *testing.T) {
	ctrl, sifter, persistence, categorizer, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Any()).Return([]uint32{4}, nil)
	imapConnection.EXPECT().FetchMails(gomock.Any()).Return([]*domain.RawImapMail{
		{Uid: 4, RawMail: rawMail("trip", "agent@x.com", "<4@x>")},
	}, nil)

	categorizer.EXPECT().Categorize(gomock.Any()).Return("Travel")
	persistence.EXPECT().SaveMail(gomock.Any()).Return(nil)

	imapConnection.EXPECT().EnsureFolder(gomock.Eq("Travel")).Return(errors.New("NO create failed"))
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{4})).Return(nil)
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestRun_FlagFailureDoesNotReduceCount(t *testing.T) {
	ctrl, sifter, persistence, categorizer, imapConnection := setup(t)
	defer ctrl.Finish()

	imapConnection.EXPECT().SelectInbox().Return(nil)
	imapConnection.EXPECT().SearchUnseenSince(gomock.Any()).Return([]uint32{5}, nil)
	imapConnection.EXPECT().FetchMails(gomock.Any()).Return([]*domain.RawImapMail{
		{Uid: 5, RawMail: rawMail("order", "shop@x.com", "<5@x>")},
	}, nil)

	categorizer.EXPECT().Categorize(gomock.Any()).Return("Shopping")
	persistence.EXPECT().SaveMail(gomock.Any()).Return(nil)

	imapConnection.EXPECT().EnsureFolder(gomock.Eq("Shopping")).Return(nil)
	imapConnection.EXPECT().Copy(gomock.Eq([]uint32{5}), gomock.Eq("Shopping")).Return(nil)
	imapConnection.EXPECT().MarkSeen(gomock.Eq([]uint32{5})).Return(errors.New("broken pipe"))
	imapConnection.EXPECT().Close().Return(nil)

	processed, err := sifter.Run()
	assert.NoError(t, err)
	assert.Equal(t, 1, processed)
}
