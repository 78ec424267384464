package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"kreditomat/internal/auth/models"
)

// LogSender logs codes instead of delivering them. Development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.logger.InfoContext(ctx, "otp code generated",
		"phone", models.MaskPhone(phone),
		"code", code,
	)
	return nil
}

func (s *LogSender) CheckAvailability(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// TelegramSender delivers OTP codes through the Telegram gateway API.
type TelegramSender struct {
	baseURL   string
	authToken string
	client    *http.Client
	otpTTL    time.Duration
}

func NewTelegramSender(baseURL, authToken string, otpTTL time.Duration) *TelegramSender {
	return &TelegramSender{
		baseURL:   baseURL,
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		otpTTL:    otpTTL,
	}
}

func (s *TelegramSender) Send(ctx context.Context, phone, code string) error {
	payload := map[string]any{
		"phone_number": phone,
		"code":         code,
		"code_length":  len(code),
		"ttl":          int(s.otpTTL.Seconds()),
	}
	var result struct {
		Error string `json:"error"`
	}
	status, err := s.post(ctx, "/sendVerificationMessage", payload, &result)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		if result.Error == "" {
			result.Error = "unknown error"
		}
		return fmt.Errorf("telegram gateway: %s", result.Error)
	}
	return nil
}

func (s *TelegramSender) CheckAvailability(ctx context.Context, phone string) (bool, error) {
	var result struct {
		Result bool `json:"result"`
	}
	status, err := s.post(ctx, "/checkPhoneNumber", map[string]any{"phone_number": phone}, &result)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, nil
	}
	return result.Result, nil
}

func (s *TelegramSender) post(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}
