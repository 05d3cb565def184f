package curriculum

import (
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/meikuraledutech/curriculum"

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(p *Publisher) {
		p.log = log
	}
}

// WithTracer sets the tracer used for publish spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Publisher) {
		p.tracer = t
	}
}

// WithNotifier registers a notifier that is told about each published version.
func WithNotifier(n Notifier) Option {
	return func(p *Publisher) {
		p.notifier = n
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithVersionRetries sets how many times a version number is re-read after
// losing a numbering race. Values below 1 are ignored.
func WithVersionRetries(n int) Option {
	return func(p *Publisher) {
		if n >= 1 {
			p.versionRetries = n
		}
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
