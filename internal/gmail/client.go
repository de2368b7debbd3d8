package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
)

// userID addresses the authenticated mailbox.
const userID = "me"

// Client wraps the Gmail users service.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	api     []option.ClientOption
}

// WithMetrics records API calls on m.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(o *clientOptions) { o.metrics = m }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l }
}

// WithAPIOptions passes extra options to the generated API client, for
// example option.WithEndpoint in tests.
func WithAPIOptions(opts ...option.ClientOption) ClientOption {
	return func(o *clientOptions) { o.api = append(o.api, opts...) }
}

// NewClient creates a client that authenticates with hc.
func NewClient(ctx context.Context, hc *http.Client, opts ...ClientOption) (*Client, error) {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	apiOpts := append([]option.ClientOption{option.WithHTTPClient(hc)}, o.api...)
	svc, err := gmail.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		metrics: o.metrics,
		logger:  logging.WithOperation(o.logger, "gmail"),
	}, nil
}

// observe runs fn inside a span and records its outcome.
func (c *Client) observe(ctx context.Context, operation, resourceID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()
	if resourceID != "" {
		span.SetAttributes(attributeResourceID(resourceID))
	}

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("gmail call failed", logging.Operation(operation), logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, duration)
	return err
}
