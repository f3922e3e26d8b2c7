// SPDX-License-Identifier: GPL-3.0-or-later
package api

import (
	"net/http"
	"sync"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// IngestRunner is one ingestion pass, see mailsift.MailSift.
type IngestRunner interface {
	Run() (int, error)
}

type Server struct {
	echo        *echo.Echo
	persistence domain.Persistence
	ingestor    IngestRunner

	// serializes runs triggered over http; the imap session protocol is
	// not reentrant and two overlapping runs would double-process mails
	runLock sync.Mutex

	l *logrus.Logger
}

func NewServer(persistence domain.Persistence, ingestor IngestRunner) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:        e,
		persistence: persistence,
		ingestor:    ingestor,
		l:           log.Logger(log.LOG_API),
	}

	e.GET("/emails", s.listEmails)
	e.GET("/fetch", s.fetchEmails)

	return s
}

func (s *Server) Start(listen string) error {
	s.l.WithFields(logrus.Fields{"listen": listen}).Info("Serving http api")
	return s.echo.Start(listen)
}

type emailResponse struct {
	Id        int64  `json:"id"`
	MessageId string `json:"messageId"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Timestamp int64  `json:"timestamp"`
	Category  string `json:"category"`
}

type fetchResponse struct {
	Success         bool   `json:"success"`
	EmailsProcessed *int   `json:"emailsProcessed,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (s *Server) listEmails(c echo.Context) error {
	mails, err := s.persistence.AllMails()
	if err != nil {
		s.l.WithFields(logrus.Fields{"error": err}).Error("Could not list mails")
		return c.JSON(http.StatusInternalServerError, fetchResponse{Success: false, Error: "Failed to list emails"})
	}

	response := []emailResponse{}
	for _, m := range mails {
		response = append(response, emailResponse{
			Id:        m.Id,
			MessageId: m.MessageId,
			Sender:    m.Sender,
			Subject:   m.Subject,
			Timestamp: m.Timestamp,
			Category:  m.Category,
		})
	}

	return c.JSON(http.StatusOK, response)
}

func (s *Server) fetchEmails(c echo.Context) error {
	s.runLock.Lock()
	defer s.runLock.Unlock()

	processed, err := s.ingestor.Run()
	if err != nil {
		// internal detail stays in the log, the caller gets a generic failure
		s.l.WithFields(logrus.Fields{"error": err}).Error("Ingestion run failed")
		return c.JSON(http.StatusInternalServerError, fetchResponse{Success: false, Error: "Failed to fetch emails"})
	}

	return c.JSON(http.StatusOK, fetchResponse{Success: true, EmailsProcessed: &processed})
}
