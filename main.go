// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"github.com/mailsift/mailsift/api"
	"github.com/mailsift/mailsift/classifier/groq"
	"github.com/mailsift/mailsift/config"
	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/imapconnection"
	"github.com/mailsift/mailsift/log"
	"github.com/mailsift/mailsift/mailsift"
	"github.com/mailsift/mailsift/persistence"

	"github.com/sirupsen/logrus"
)

func main() {
	log.InitLogging("debug")
	logger := log.Logger(log.LOG_MAIN)

	conf, err := config.ReadConfig("config.toml")
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}

	p, err := persistence.NewPersistence(conf.Database)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not connect to database")
	}
	defer p.Close()

	categorizer := groq.NewGroq(groq.DefaultBaseUrl, conf.GroqApiKey, conf.GroqModel)

	dial := func() (domain.ImapConnector, error) {
		return imapconnection.NewImapConnection(conf.ImapHost, conf.User, conf.Password)
	}

	ms, err := mailsift.NewMailSift(p, categorizer, dial, mailsift.SinceDate(conf.Cutoff()))
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start ingestor")
	}

	logger.WithFields(logrus.Fields{"imap": conf.ImapHost, "cutoff": conf.CutoffDate, "listen": conf.Listen}).Info("Starting mailsift")

	server := api.NewServer(p, ms)
	err = server.Start(conf.Listen)
	if err != nil {
		logger.WithField("error", err).Fatal("Http api failed")
	}
}
