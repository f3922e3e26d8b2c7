// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	stdmail "net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
)

// ParsedMail holds the fields the pipeline cares about. Optional headers
// that are missing from the source message are substituted, never fatal:
// Sender/Subject/MessageId become empty, ReceivedAt becomes the current time.
type ParsedMail struct {
	Sender     string
	Subject    string
	BodyText   string
	MessageId  string
	ReceivedAt time.Time
}

func Parse(rawMail []byte) (*ParsedMail, error) {
	msg, err := stdmail.ReadMessage(bytes.NewReader(rawMail))
	if err != nil {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}

	dec := &mime.WordDecoder{
		CharsetReader: charset.Reader,
	}

	subject := decodeHeader(dec, msg.Header.Get("Subject"))
	sender := decodeHeader(dec, msg.Header.Get("From"))
	messageId := strings.TrimSpace(msg.Header.Get("Message-Id"))

	receivedAt, err := msg.Header.Date()
	if err != nil {
		receivedAt = time.Now()
	}
	receivedAt = receivedAt.Truncate(time.Second)

	body, err := bodyText(msg.Header, msg.Body)
	if err != nil {
		return nil, fmt.Errorf("could not extract mail body: %w", err)
	}

	return &ParsedMail{
		Sender:     sender,
		Subject:    subject,
		BodyText:   body,
		MessageId:  messageId,
		ReceivedAt: receivedAt,
	}, nil
}

func decodeHeader(dec *mime.WordDecoder, value string) string {
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		// keep the undecoded header over losing it entirely
		return value
	}
	return decoded
}

func bodyText(header stdmail.Header, body io.Reader) (string, error) {
	contentType := header.Get("Content-Type")
	if len(contentType) == 0 {
		return readText(body, header.Get("Content-Transfer-Encoding"))
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return readText(body, header.Get("Content-Transfer-Encoding"))
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return readText(body, header.Get("Content-Transfer-Encoding"))
	}

	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			// no text part found
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("unexpected error while walking parts: %w", err)
		}

		partType := p.Header.Get("Content-Type")
		if len(partType) == 0 || strings.HasPrefix(partType, "text/plain") {
			return readText(p, p.Header.Get("Content-Transfer-Encoding"))
		}
	}
}

func readText(r io.Reader, transferEncoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("could not read body text: %w", err)
	}

	return string(text), nil
}

func ShortSubject(subject string) string {
	if (len(subject)) > 30 {
		subject = subject[:30] + "..."
	}
	return subject
}
