// SPDX-License-Identifier: GPL-3.0-or-later
package mailsift

import (
	"regexp"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/mail"

	"github.com/sirupsen/logrus"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// FolderName derives the server folder for a category. Runs of whitespace
// collapse to a single underscore so distinct categories that differ only
// in whitespace style map to the same folder.
func FolderName(category string) string {
	return whitespaceRun.ReplaceAllString(category, "_")
}

// applyLabel mirrors the category on the server by copying the mail into a
// folder named after it. Labeling is best-effort: a failure is logged and
// never blocks persistence or flagging.
func (ms *MailSift) applyLabel(conn domain.ImapConnector, uid uint32, category string, subject string) {
	folder := FolderName(category)

	err := conn.EnsureFolder(folder)
	if err != nil {
		ms.l.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Could not ensure folder, skipping label")
		return
	}

	err = conn.Copy([]uint32{uid}, folder)
	if err != nil {
		ms.l.WithFields(logrus.Fields{"folder": folder, "uid": uid, "error": err}).Warn("Could not copy mail into folder")
		return
	}

	ms.l.WithFields(logrus.Fields{"folder": folder, "subject": mail.ShortSubject(subject)}).Debug("Labeled mail")
}
