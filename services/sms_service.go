// services/sms_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"disasterguardian/config"
	"disasterguardian/interfaces"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSService sends SMS through the Twilio REST API.
type TwilioSMSService struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMSService(accountSID, authToken, from string) *TwilioSMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{
		client: client,
		from:   from,
	}
}

func (ts *TwilioSMSService) Name() string { return "twilio" }

func (ts *TwilioSMSService) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(ts.from)
	params.SetBody(body)

	resp, err := ts.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio: %w", err)
	}
	if resp.Sid == nil {
		return "", errors.New("twilio: response without message sid")
	}
	return *resp.Sid, nil
}

// MockSMSService logs messages instead of sending them.
type MockSMSService struct {
	mu   sync.Mutex
	sent []SentSMS
}

type SentSMS struct {
	To   string
	Body string
}

func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

func (ms *MockSMSService) Name() string { return "mock" }

func (ms *MockSMSService) SendSMS(_ context.Context, to, body string) (string, error) {
	ms.mu.Lock()
	ms.sent = append(ms.sent, SentSMS{To: to, Body: body})
	n := len(ms.sent)
	ms.mu.Unlock()

	logrus.Infof("[MOCK SMS] To: %s, Body: %s", utils.MaskPhoneNumber(to), utils.TruncateString(body, 80))
	return fmt.Sprintf("mock-%d", n), nil
}

// Sent returns a copy of everything sent so far.
func (ms *MockSMSService) Sent() []SentSMS {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]SentSMS(nil), ms.sent...)
}

// NewSMSSender picks Twilio when credentials are configured.
func NewSMSSender(cfg config.NotificationConfig) interfaces.SMSSender {
	if cfg.TwilioEnabled() {
		logrus.Info("📱 SMS provider: Twilio")
		return NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	}
	logrus.Warn("📱 Twilio not configured, SMS messages will only be logged")
	return NewMockSMSService()
}
