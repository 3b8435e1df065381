package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"claude-session-hub/internal/model"
	pkgLog "claude-session-hub/pkg/log"
	pkgResponse "claude-session-hub/pkg/response"
)

// Processor runs the per-request webhook pipeline: resolve provider, verify
// signature, parse, resolve handlers, execute in priority order, aggregate.
type Processor struct {
	registry *Registry
	l        pkgLog.Logger
}

// NewProcessor creates a processor over the given registry.
func NewProcessor(registry *Registry, l pkgLog.Logger) *Processor {
	return &Processor{registry: registry, l: l}
}

// ProcessWebhook handles one inbound webhook request end-to-end and writes
// the HTTP response. Provider and parse errors are fatal to the request;
// handler errors are isolated per handler and only downgrade the aggregate
// status from 200 to 207.
func (p *Processor) ProcessWebhook(c *gin.Context, opts ProcessOptions) {
	ctx := c.Request.Context()

	provider, ok := p.registry.GetProvider(opts.Provider)
	if !ok {
		p.l.Warnf(ctx, "%s: unknown provider %q", LogPrefixProcess, opts.Provider)
		pkgResponse.NotFound(c)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		p.l.Errorf(ctx, "%s: failed to read body: %v", LogPrefixProcess, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	// Verification runs only when a secret is configured; whether skipping
	// is acceptable is the caller's policy, enforced by config validation.
	if !opts.SkipSignatureVerification && opts.Secret != "" {
		if err := provider.VerifySignature(c.Request, body, opts.Secret); err != nil {
			p.l.Warnf(ctx, "%s: signature verification failed for %s: %v", LogPrefixProcess, provider.Name(), err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	payload, err := provider.ParsePayload(c.Request, body)
	if err != nil {
		p.l.Errorf(ctx, "%s: failed to parse %s payload: %v", LogPrefixProcess, provider.Name(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	eventType := provider.GetEventType(payload)
	wctx := &model.WebhookContext{
		Provider:      provider.Name(),
		Authenticated: !opts.SkipSignatureVerification && opts.Secret != "",
		Metadata:      map[string]any{"description": provider.GetEventDescription(payload)},
	}

	handlers := p.registry.GetHandlers(opts.Provider, eventType)
	if len(handlers) == 0 {
		p.l.Infof(ctx, "%s: no handlers registered for event %q", LogPrefixProcess, eventType)
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("No handlers registered for event: %s", eventType),
			"event":   eventType,
		})
		return
	}

	// Handlers run sequentially in priority order: higher-priority handlers
	// may have side effects (labels, comments) that later handlers observe.
	results := make([]model.HandlerResponse, 0, len(handlers))
	allOK := true
	for _, h := range handlers {
		if ch, ok := h.(ConditionalHandler); ok && !ch.CanHandle(payload, wctx) {
			continue
		}

		res := p.invoke(ctx, h, payload, wctx)
		if !res.Success {
			allOK = false
		}
		results = append(results, res)
	}

	status := http.StatusOK
	message := "Webhook processed successfully"
	if !allOK {
		status = http.StatusMultiStatus
		message = "Webhook processed with some handler failures"
	}

	c.JSON(status, gin.H{
		"message":      message,
		"event":        eventType,
		"handlerCount": len(results),
		"results":      results,
	})
}

// invoke calls one handler, converting any returned error or panic into a
// failed HandlerResponse so one misbehaving handler cannot block the rest.
func (p *Processor) invoke(ctx context.Context, h Handler, payload *model.WebhookPayload, wctx *model.WebhookContext) (res model.HandlerResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.l.Errorf(ctx, "%s: handler %q panicked on %s: %v", LogPrefixProcess, h.EventPattern(), payload.Event, r)
			res = model.HandlerResponse{Success: false, Error: fmt.Sprintf("handler panic: %v", r)}
		}
	}()

	res, err := h.Handle(ctx, payload, wctx)
	if err != nil {
		p.l.Errorf(ctx, "%s: handler %q failed on %s: %v", LogPrefixProcess, h.EventPattern(), payload.Event, err)
		return model.HandlerResponse{Success: false, Error: err.Error()}
	}
	return res
}
