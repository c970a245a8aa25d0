// Copyright (C) 2026 Flowgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify delivers push notifications through an ntfy topic.
// Delivery is best-effort by design: callers treat a failed send as a
// log line, not an operation failure.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/logger"
)

var (
	notifyLog     *zerolog.Logger
	notifyLogOnce sync.Once
)

func getNotifyLog() *zerolog.Logger {
	notifyLogOnce.Do(func() {
		l := logger.GetNotifyLogger().With().Str("component", "ntfy").Logger()
		notifyLog = &l
	})
	return notifyLog
}

// Sender publishes messages to a single ntfy topic.
type Sender struct {
	url        string
	topic      string
	httpClient *http.Client
}

// NewSender creates a sender for the configured topic.
func NewSender(cfg config.NotifyConfig) *Sender {
	return &Sender{
		url:        strings.TrimRight(cfg.URL, "/"),
		topic:      cfg.Topic,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send publishes one message. The subject travels as the ntfy title
// header, the body as the request body.
func (s *Sender) Send(ctx context.Context, subject, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/"+s.topic, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Title", subject)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("notification rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	getNotifyLog().Debug().Str("topic", s.topic).Str("subject", subject).Msg("Notification sent")
	return nil
}
