// SPDX-License-Identifier: GPL-3.0-or-later
package groq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailsift/mailsift/domain"
	"github.com/mailsift/mailsift/log"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseUrl = "https://api.groq.com/openai/v1"
	GroqTimeout    = 20 * time.Second

	// Longer mails carry no extra signal for a single-label reply
	maxContentLength = 4000

	systemPrompt = "You are an email categorization assistant. Categorize emails into: " +
		"Work, Personal, Finance, Shopping, Travel, or suggest a new category if none fit. " +
		"Respond only with the category name."
)

type Groq struct {
	client  *http.Client
	baseUrl string
	apiKey  string
	model   string

	l *logrus.Logger
}

func NewGroq(baseUrl, apiKey, model string) *Groq {
	return &Groq{
		client: &http.Client{
			Timeout: GroqTimeout,
		},
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		apiKey:  apiKey,
		model:   model,
		l:       log.Logger(log.LOG_CLASSIFIER),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Categorize never fails: any trouble with the completion call downgrades
// to the sentinel label so a single mail still gets ingested.
func (g *Groq) Categorize(content string) string {
	category, err := g.complete(content)
	if err != nil {
		g.l.WithFields(logrus.Fields{"error": err}).Warn("Could not categorize mail, falling back")
		return domain.UncategorizedLabel
	}

	category = strings.TrimSpace(category)
	if len(category) == 0 {
		g.l.Warn("Model returned a blank category, falling back")
		return domain.UncategorizedLabel
	}

	return category
}

func (g *Groq) complete(content string) (string, error) {
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	request := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Categorize this email:\n" + content},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("could not serialize completion request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.baseUrl+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not perform completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from groq, expected 200", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read groq response: %w", err)
	}

	completion := &chatResponse{}
	err = json.Unmarshal(respBody, completion)
	if err != nil {
		return "", fmt.Errorf("could not deserialize groq response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("could not find any choices in groq response")
	}

	return completion.Choices[0].Message.Content, nil
}
