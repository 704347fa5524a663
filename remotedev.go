package remotedev

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/remotedev/internal/buffer"
	"github.com/aretw0/remotedev/internal/logging"
	"github.com/aretw0/remotedev/internal/trigger"
	"github.com/aretw0/remotedev/internal/watcher"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/filter"
	"github.com/aretw0/remotedev/pkg/metrics"
	"github.com/aretw0/remotedev/pkg/ports"
	"github.com/aretw0/remotedev/pkg/serialize"
	"github.com/aretw0/remotedev/pkg/transport"
)

// Enhancer is a validated configuration ready to decorate stores.
// It is safe to share; every enhanced store gets its own history.
type Enhancer struct {
	cfg        Config
	mode       Mode
	reportType domain.ReportType
	filter     *filter.Set
	serializer *serialize.Serializer
	sender     transport.Sender
	httpSender *transport.HTTPSender
	errors     <-chan error
	metrics    *metrics.Metrics
	logger     *slog.Logger
	ctx        context.Context
}

// New validates cfg and prepares an Enhancer.
func New(cfg Config, opts ...Option) (*Enhancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Enhancer{
		cfg: cfg,
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger).With("component", "remotedev")

	set, err := filter.New(cfg.ActionsWhitelist, cfg.ActionsBlacklist)
	if err != nil {
		return nil, &ConfigError{Field: "ActionsWhitelist", Err: err}
	}
	e.filter = set
	e.mode = cfg.Mode()
	e.reportType = cfg.ReportType()
	e.serializer = serialize.New(cfg.StringifyReplacer)

	if e.cfg.UserAgent == "" {
		e.cfg.UserAgent = DefaultUserAgent()
	}
	e.cfg.SendOn = append([]string(nil), cfg.SendOn...)
	e.cfg.Headers = copyHeaders(cfg.Headers)

	switch {
	case cfg.Sender != nil:
		e.sender = cfg.Sender
	case e.httpSender != nil:
		e.sender = e.httpSender
	default:
		e.sender = transport.NewHTTPSender(transport.WithLogger(e.logger))
	}

	return e, nil
}

// Mode returns the active reporting policy.
func (e *Enhancer) Mode() Mode {
	return e.mode
}

// ReportType returns the type stamped on every report.
func (e *Enhancer) ReportType() domain.ReportType {
	return e.reportType
}

// Enhance decorates next. The returned store owns its own history and, when
// SendOnError is set, its own error watcher; call Close to release it.
func (e *Enhancer) Enhance(next ports.Store) *Store {
	s := &Store{
		next:    next,
		enh:     e,
		buffer:  buffer.New(e.cfg.MaxAge),
		trigger: trigger.New(e.cfg.SendOn, trigger.Predicate(e.cfg.SendOnFunc), trigger.Predicate(e.cfg.SendOnCondition)),
		logger:  e.logger,
	}
	s.sendDone = sync.NewCond(&s.sendMu)
	s.ctx, s.cancel = context.WithCancel(e.ctx)

	if e.mode != ModeEvery && s.trigger.Empty() && !e.cfg.SendOnError {
		e.logger.Warn("no send rule configured, reports will only be sent through ReportError or Recover")
	}

	if e.cfg.SendOnError && e.errors != nil {
		s.watcher = watcher.Start(s.ctx, e.errors, func(err error) {
			s.ReportError(err)
		})
	}
	return s
}

// Apply is Enhance in ports.Enhancer form, for store.Create.
func (e *Enhancer) Apply(next ports.Store) ports.Store {
	return e.Enhance(next)
}

func copyHeaders(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
