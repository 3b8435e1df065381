package webhook

import (
	"context"
	"net/http"

	"claude-session-hub/internal/model"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, args ...any)                 {}
func (mockLogger) Debugf(ctx context.Context, format string, args ...any) {}
func (mockLogger) Info(ctx context.Context, args ...any)                  {}
func (mockLogger) Infof(ctx context.Context, format string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, args ...any)                  {}
func (mockLogger) Warnf(ctx context.Context, format string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, args ...any)                 {}
func (mockLogger) Errorf(ctx context.Context, format string, args ...any) {}
func (mockLogger) Fatalf(ctx context.Context, format string, args ...any) {}

type mockProvider struct {
	name            string
	verifyFunc      func(r *http.Request, body []byte, secret string) error
	parseFunc       func(r *http.Request, body []byte) (*model.WebhookPayload, error)
	eventTypeFunc   func(payload *model.WebhookPayload) string
	descriptionFunc func(payload *model.WebhookPayload) string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) VerifySignature(r *http.Request, body []byte, secret string) error {
	if m.verifyFunc != nil {
		return m.verifyFunc(r, body, secret)
	}
	return nil
}

func (m *mockProvider) ParsePayload(r *http.Request, body []byte) (*model.WebhookPayload, error) {
	if m.parseFunc != nil {
		return m.parseFunc(r, body)
	}
	return &model.WebhookPayload{Event: "test.event", Data: map[string]any{}}, nil
}

func (m *mockProvider) GetEventType(payload *model.WebhookPayload) string {
	if m.eventTypeFunc != nil {
		return m.eventTypeFunc(payload)
	}
	return payload.Event
}

func (m *mockProvider) GetEventDescription(payload *model.WebhookPayload) string {
	if m.descriptionFunc != nil {
		return m.descriptionFunc(payload)
	}
	return "test event"
}

type mockHandler struct {
	pattern    string
	priority   int
	handleFunc func(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error)
}

func (m *mockHandler) EventPattern() string { return m.pattern }
func (m *mockHandler) Priority() int        { return m.priority }

func (m *mockHandler) Handle(ctx context.Context, payload *model.WebhookPayload, wctx *model.WebhookContext) (model.HandlerResponse, error) {
	if m.handleFunc != nil {
		return m.handleFunc(ctx, payload, wctx)
	}
	return model.HandlerResponse{Success: true}, nil
}

// mockConditionalHandler adds CanHandle gating on top of mockHandler.
type mockConditionalHandler struct {
	mockHandler
	canHandleFunc func(payload *model.WebhookPayload, wctx *model.WebhookContext) bool
}

func (m *mockConditionalHandler) CanHandle(payload *model.WebhookPayload, wctx *model.WebhookContext) bool {
	if m.canHandleFunc != nil {
		return m.canHandleFunc(payload, wctx)
	}
	return true
}
