// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	filename := path.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(filename, []byte(content), 0o600)
	assert.NoError(t, err)
	return filename
}

const validConfig = `
ImapHost = "imap.gmail.com:993"
User = "someone@gmail.com"
Password = "hunter2"
GroqApiKey = "gsk_test"
`

func TestReadConfig(t *testing.T) {
	t.Setenv("MAILSIFT_PASSWORD", "")
	t.Setenv("GROQ_API_KEY", "")

	conf, err := ReadConfig(writeConfig(t, validConfig))
	assert.NoError(t, err)

	assert.Equal(t, "imap.gmail.com:993", conf.ImapHost)
	assert.Equal(t, "someone@gmail.com", conf.User)
	assert.Equal(t, "hunter2", conf.Password)
	assert.Equal(t, "gsk_test", conf.GroqApiKey)

	// defaults
	assert.Equal(t, "mailsift.db", conf.Database)
	assert.Equal(t, "llama3-8b-8192", conf.GroqModel)
	assert.Equal(t, ":8080", conf.Listen)
	assert.Equal(t, time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC), conf.Cutoff())
}

func TestReadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MAILSIFT_PASSWORD", "env-password")
	t.Setenv("GROQ_API_KEY", "gsk_env")

	conf, err := ReadConfig(writeConfig(t, `
ImapHost = "imap.gmail.com:993"
User = "someone@gmail.com"
Password = "ignored"
GroqApiKey = "ignored"
`))
	assert.NoError(t, err)
	assert.Equal(t, "env-password", conf.Password)
	assert.Equal(t, "gsk_env", conf.GroqApiKey)
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     string
	}{
		{
			"missinghost",
			`
User = "someone@gmail.com"
Password = "hunter2"
GroqApiKey = "gsk_test"
`,
			"ImapHost must not be empty, set to host:port of the imap server",
		},
		{
			"missinguser",
			`
ImapHost = "imap.gmail.com:993"
Password = "hunter2"
GroqApiKey = "gsk_test"
`,
			"User must not be empty, set to username on the imap server",
		},
		{
			"missingpassword",
			`
ImapHost = "imap.gmail.com:993"
User = "someone@gmail.com"
GroqApiKey = "gsk_test"
`,
			"Password must not be empty, set to password of User on the imap server or export MAILSIFT_PASSWORD",
		},
		{
			"missingapikey",
			`
ImapHost = "imap.gmail.com:993"
User = "someone@gmail.com"
Password = "hunter2"
`,
			"GroqApiKey must not be empty, set to a Groq API key or export GROQ_API_KEY",
		},
		{
			"badcutoff",
			validConfig + `CutoffDate = "2024-12-29"` + "\n",
			`CutoffDate "2024-12-29" is not valid, use the form "29 Dec 2024"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MAILSIFT_PASSWORD", "")
			t.Setenv("GROQ_API_KEY", "")

			conf, err := ReadConfig(writeConfig(t, tc.content))
			assert.Nil(t, conf)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestReadConfig_MissingFile(t *testing.T) {
	conf, err := ReadConfig(path.Join(t.TempDir(), "nope.toml"))
	assert.Nil(t, conf)
	assert.Error(t, err)
}
