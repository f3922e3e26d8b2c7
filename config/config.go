// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const cutoffLayout = "2 Jan 2006"

type Config struct {
	Database string

	ImapHost string
	User     string
	Password string

	GroqApiKey string
	GroqModel  string

	Listen     string
	CutoffDate string

	Loglevel *string
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		Database:   "mailsift.db",
		GroqModel:  "llama3-8b-8192",
		Listen:     ":8080",
		CutoffDate: "29 Dec 2024",
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	// Secrets may come from the environment instead of the config file
	if password := os.Getenv("MAILSIFT_PASSWORD"); password != "" {
		config.Password = password
	}
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		config.GroqApiKey = apiKey
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Cutoff() time.Time {
	t, err := time.Parse(cutoffLayout, c.CutoffDate)
	if err != nil {
		// validate() already rejected unparseable dates
		panic(err)
	}
	return t
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.Database, "Database name must not be empty, set to a filename for the sqlite database"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server or export MAILSIFT_PASSWORD"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.GroqApiKey, "GroqApiKey must not be empty, set to a Groq API key or export GROQ_API_KEY"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Listen, "Listen must not be empty, set to a host:port for the http api"); err != nil {
		return err
	}

	if _, err := time.Parse(cutoffLayout, c.CutoffDate); err != nil {
		return fmt.Errorf(`CutoffDate %q is not valid, use the form "29 Dec 2024": %w`, c.CutoffDate, err)
	}

	return nil
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
