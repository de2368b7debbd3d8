package instrumentation

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the OpenTelemetry settings.
type Config struct {
	ServiceName       string `envconfig:"OTEL_SERVICE_NAME" default:"mailtriage"`
	ServiceVersion    string `ignored:"true"`
	ServiceInstanceID string `envconfig:"OTEL_SERVICE_INSTANCE_ID"`

	// Enabled turns metrics and tracing on. When false every recorder is a
	// no-op.
	Enabled bool `envconfig:"INSTRUMENTATION_ENABLED" default:"true"`

	// MetricsExporter is one of prometheus, otlp, stdout.
	MetricsExporter string `envconfig:"METRICS_EXPORTER" default:"prometheus"`

	// TracingExporter is one of otlp, stdout, none.
	TracingExporter string `envconfig:"TRACING_EXPORTER" default:"none"`

	// OTLPEndpoint is host:port without scheme.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure disables TLS towards the collector. Development only.
	OTLPInsecure bool `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`

	TraceSamplingRate float64 `envconfig:"OTEL_TRACES_SAMPLER_ARG" default:"0.1"`

	// DetailedLabels adds the model name to LLM metrics and the repository
	// to GitHub metrics.
	DetailedLabels bool `envconfig:"METRICS_DETAILED_LABELS" default:"false"`

	// AuditLogging controls the audit log of write actions (drafts, issues).
	AuditLogging bool `envconfig:"AUDIT_LOGGING_ENABLED" default:"true"`
}

// DefaultConfig returns the built-in defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "mailtriage",
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: 0.1,
		AuditLogging:      true,
	}
}

// ConfigFromEnv reads the instrumentation environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("failed to process instrumentation environment: %w", err)
	}
	c.ServiceVersion = "unknown"
	return c, c.Validate()
}

// Validate checks exporter names, sampling bounds and OTLP requirements.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}
	return nil
}

// Label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Run modes.
	ModeLLM       = "llm"
	ModeOffline   = "offline"
	ModeHeuristic = "heuristic"

	ServiceGmail = "gmail"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
