// Package mail implements best-effort outbound notification delivery.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Message is one outbound notification.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type apiPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Client delivers messages through the transactional mail HTTP API.
type Client struct {
	client     *resty.Client
	mailConfig *config.MailConfig
	log        *zerolog.Logger
}

// InitClient initializes a resty client for the mail API.
func InitClient(mailConfig *config.MailConfig, log *zerolog.Logger) *Client {
	mailClient := resty.New().SetTimeout(10 * time.Second)
	log.Info().Msg("mail API client initialized")
	return &Client{client: mailClient, mailConfig: mailConfig, log: log}
}

// Send posts one message to the mail API. Failures are returned for logging
// only; the caller never propagates them into a ledger operation.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.mailConfig.MailAPIAddress == "" {
		c.log.Info().Msg(fmt.Sprintf("mail API address is not set, dropping message for %s", msg.To))
		return nil
	}
	payload := apiPayload{
		From:    c.mailConfig.MailSender,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.mailConfig.MailAPIKey).
		SetBody(payload).
		Post(c.mailConfig.MailAPIAddress + "/messages")
	if err != nil {
		return err
	}
	if response.IsError() {
		return fmt.Errorf("mail API responded with %s", response.Status())
	}
	return nil
}
