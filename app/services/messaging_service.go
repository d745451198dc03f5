// Package services provides external service integrations and technical concerns like messaging and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/order-relay/config"
	"github.com/amirphl/order-relay/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const maxProviderResponseBytes = 4096

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dispatch_total",
			Help: "Outbound message dispatch attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_dispatch_duration_seconds",
			Help:    "Outbound message dispatch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// MessagingCredentials are the per-store provider credentials
type MessagingCredentials struct {
	InstanceID string
	Token      string
}

// DispatchOutcome is the result of one dispatch attempt. Transport failures are
// reported through Success=false and Reason, never as an error.
type DispatchOutcome struct {
	Success          bool
	StatusCode       int
	ProviderResponse string
	Reason           string
	Latency          time.Duration
}

// MessagingService sends one chat message through the messaging provider
type MessagingService interface {
	Send(ctx context.Context, phone, text string, creds MessagingCredentials) DispatchOutcome
	Provider() string
}

// NewMessagingService builds the provider selected in configuration
func NewMessagingService(cfg *config.MessagingConfig) (MessagingService, error) {
	switch cfg.Provider {
	case "ultramsg":
		return NewUltraMsgService(cfg), nil
	case "mock":
		return NewMockMessagingService(), nil
	default:
		return nil, fmt.Errorf("unsupported messaging provider %q", cfg.Provider)
	}
}

// UltraMsgService implements MessagingService against the UltraMsg chat API
type UltraMsgService struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewUltraMsgService creates a new UltraMsg client
func NewUltraMsgService(cfg *config.MessagingConfig) *UltraMsgService {
	return &UltraMsgService{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		timeout: cfg.Timeout,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *UltraMsgService) Provider() string { return "ultramsg" }

// Send posts the message to {base}/{instance}/messages/chat
func (s *UltraMsgService) Send(ctx context.Context, phone, text string, creds MessagingCredentials) DispatchOutcome {
	start := time.Now()
	outcome := s.send(ctx, phone, text, creds)
	outcome.Latency = time.Since(start)
	observeDispatch(s.Provider(), outcome)
	return outcome
}

func (s *UltraMsgService) send(ctx context.Context, phone, text string, creds MessagingCredentials) DispatchOutcome {
	if creds.InstanceID == "" || creds.Token == "" {
		return DispatchOutcome{Reason: "missing provider credentials"}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("token", creds.Token)
	form.Set("to", phone)
	form.Set("body", text)

	endpoint := fmt.Sprintf("%s/%s/messages/chat", s.baseURL, url.PathEscape(creds.InstanceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return DispatchOutcome{Reason: fmt.Sprintf("failed to create HTTP request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return DispatchOutcome{Reason: "provider request timed out"}
		}
		return DispatchOutcome{Reason: fmt.Sprintf("provider request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes))
	outcome := DispatchOutcome{
		StatusCode:       resp.StatusCode,
		ProviderResponse: string(body),
	}
	if resp.StatusCode != http.StatusOK {
		outcome.Reason = fmt.Sprintf("provider responded with status %d", resp.StatusCode)
		return outcome
	}
	outcome.Success = true
	return outcome
}

func observeDispatch(provider string, outcome DispatchOutcome) {
	result := "success"
	if !outcome.Success {
		result = "failure"
	}
	dispatchTotal.WithLabelValues(provider, result).Inc()
	dispatchDuration.WithLabelValues(provider).Observe(outcome.Latency.Seconds())
}

// MockMessagingService implements MessagingService for testing and local runs
type MockMessagingService struct {
	mu           sync.Mutex
	sentMessages []MockChatMessage
	failReason   string
}

// MockChatMessage represents a mock chat message
type MockChatMessage struct {
	Phone      string
	Text       string
	InstanceID string
	SentAt     time.Time
}

// NewMockMessagingService creates a new mock messaging service
func NewMockMessagingService() *MockMessagingService {
	return &MockMessagingService{
		sentMessages: make([]MockChatMessage, 0),
	}
}

func (m *MockMessagingService) Provider() string { return "mock" }

func (m *MockMessagingService) Send(ctx context.Context, phone, text string, creds MessagingCredentials) DispatchOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sentMessages = append(m.sentMessages, MockChatMessage{
		Phone:      phone,
		Text:       text,
		InstanceID: creds.InstanceID,
		SentAt:     utils.UTCNow(),
	})

	var outcome DispatchOutcome
	if m.failReason != "" {
		outcome = DispatchOutcome{StatusCode: http.StatusBadGateway, Reason: m.failReason}
	} else {
		outcome = DispatchOutcome{Success: true, StatusCode: http.StatusOK, ProviderResponse: `{"sent":"true","message":"ok"}`}
	}
	observeDispatch(m.Provider(), outcome)
	return outcome
}

// FailWith makes every following Send fail with reason; empty restores success
func (m *MockMessagingService) FailWith(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReason = reason
}

// SentMessages returns all attempted mock messages
func (m *MockMessagingService) SentMessages() []MockChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockChatMessage, len(m.sentMessages))
	copy(out, m.sentMessages)
	return out
}

// ClearSentMessages clears the sent messages list
func (m *MockMessagingService) ClearSentMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentMessages = make([]MockChatMessage, 0)
}
