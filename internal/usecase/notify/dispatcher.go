package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"turn-notify/internal/domain/entity"
	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/observability/tracing"
	"turn-notify/internal/repository"
	"turn-notify/internal/resilience/retry"
	"turn-notify/pkg/debounce"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Default dispatcher limits
const (
	DefaultMaxConcurrent   = 16
	DefaultLookupTimeout   = 5 * time.Second  // Timeout for one profile lookup, retries included
	DefaultDeliveryTimeout = 30 * time.Second // Timeout for a single sender call
)

// Config holds Dispatcher settings.
type Config struct {
	// MaxConcurrent bounds the number of deliveries running at once. Further
	// dispatches wait for a free slot; none is dropped.
	MaxConcurrent int

	// LookupTimeout bounds a profile lookup independently of the webhook
	// request that started it.
	LookupTimeout time.Duration

	// DeliveryTimeout bounds each sender call.
	DeliveryTimeout time.Duration

	// LookupRetry is the retry policy for profile lookups.
	LookupRetry retry.Config
}

// DefaultConfig returns the default dispatcher settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   DefaultMaxConcurrent,
		LookupTimeout:   DefaultLookupTimeout,
		DeliveryTimeout: DefaultDeliveryTimeout,
		LookupRetry:     retry.DBConfig(),
	}
}

// Outcome is the HTTP-level result of handling one webhook.
type Outcome struct {
	Status int
}

// Dispatcher turns webhook texts into deliveries.
//
// HandleWebhook parses the text, resolves the bound profiles and returns at
// once; each notify-enabled profile is delivered in its own goroutine.
// Deliveries that fall inside a profile's cooldown are rescheduled through
// the debounce cache rather than dropped.
type Dispatcher struct {
	repo   repository.ProfileRepository
	rules  RuleProvider
	bots   *BotRegistry
	cache  *debounce.Cache
	logger *slog.Logger
	cfg    Config
	tracer trace.Tracer

	lookups    singleflight.Group
	workerPool chan struct{} // Semaphore for limiting concurrent deliveries

	mu     sync.Mutex // Guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// job is one profile's share of a webhook.
type job struct {
	requestID    string
	parentSpan   trace.SpanContext
	notification entity.ParsedNotification
	profile      entity.Profile
	attempt      int // 0 for the webhook itself, >0 for debounce retries
}

// NewDispatcher creates a Dispatcher. logger should already carry the
// component name; it is used for every dispatch log line.
func NewDispatcher(repo repository.ProfileRepository, rules RuleProvider, bots *BotRegistry, cache *debounce.Cache, logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = def.LookupTimeout
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = def.DeliveryTimeout
	}
	if cfg.LookupRetry.MaxAttempts <= 0 {
		cfg.LookupRetry = def.LookupRetry
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	return &Dispatcher{
		repo:           repo,
		rules:          rules,
		bots:           bots,
		cache:          cache,
		logger:         logger,
		cfg:            cfg,
		tracer:         tracing.GetTracer(),
		workerPool:     make(chan struct{}, cfg.MaxConcurrent),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// HandleWebhook processes one webhook text.
//
// It returns 400 for malformed text and 200 otherwise, including when no
// profile is bound, when the profile store is unavailable, and before any
// delivery has completed.
func (d *Dispatcher) HandleWebhook(ctx context.Context, text string) Outcome {
	ctx, span := d.tracer.Start(ctx, "notify.HandleWebhook")
	defer span.End()

	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	log := d.logger.With(slog.String("request_id", requestID))

	n, err := ParseWebhookText(text)
	if err != nil {
		log.Warn("malformed webhook",
			slog.String("text", text),
			slog.Any("error", err))
		RecordWebhook("malformed")
		span.SetStatus(codes.Error, "malformed webhook")
		return Outcome{Status: http.StatusBadRequest}
	}

	log = log.With(
		slog.Int64("webhook_id", n.WebhookID),
		slog.String("game_id", n.GameID),
		slog.String("message", n.Message))
	span.SetAttributes(
		attribute.Int64("notify.webhook_id", n.WebhookID),
		attribute.String("notify.game_id", n.GameID))

	profiles, err := d.lookup(ctx, n.WebhookID)
	if err != nil {
		log.Error("profile lookup failed, notification dropped", slog.Any("error", err))
		RecordWebhook("store_error")
		span.RecordError(err)
		return Outcome{Status: http.StatusOK}
	}
	RecordWebhook("accepted")

	if len(profiles) == 0 {
		log.Info("no profile bound to webhook id")
		return Outcome{Status: http.StatusOK}
	}
	if len(profiles) > 1 {
		log.Warn("multiple profiles bound to one webhook id", slog.Any("profiles", profiles))
		RecordDuplicateProfiles()
	}

	dispatched := 0
	for _, p := range profiles {
		if !p.Notify {
			continue
		}
		d.spawn(job{
			requestID:    requestID,
			parentSpan:   span.SpanContext(),
			notification: n,
			profile:      *p,
		})
		dispatched++
	}
	log.Info("webhook accepted",
		slog.Int("profiles", len(profiles)),
		slog.Int("dispatched", dispatched))
	span.SetAttributes(attribute.Int("notify.dispatched", dispatched))

	return Outcome{Status: http.StatusOK}
}

// lookup loads the profiles for a webhook id. Concurrent lookups of the same
// id share one store call, which is retried on transient errors and runs
// detached from the caller's cancellation.
func (d *Dispatcher) lookup(ctx context.Context, id int64) ([]*entity.Profile, error) {
	v, err, _ := d.lookups.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return d.get(context.WithoutCancel(ctx), repository.ByID(id))
	})
	if err != nil {
		return nil, fmt.Errorf("lookup webhook %d: %w: %w", id, entity.ErrStoreUnavailable, err)
	}
	return v.([]*entity.Profile), nil
}

// get runs one retried store read bounded by LookupTimeout.
func (d *Dispatcher) get(ctx context.Context, filter repository.ProfileFilter) ([]*entity.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.LookupTimeout)
	defer cancel()

	var profiles []*entity.Profile
	err := retry.WithBackoff(ctx, d.cfg.LookupRetry, func() error {
		var getErr error
		profiles, getErr = d.repo.Get(ctx, filter)
		return getErr
	})
	return profiles, err
}

// refresh reloads a profile before a debounce retry. It returns false when
// the binding is gone or notifications were turned off in the meantime.
func (d *Dispatcher) refresh(ctx context.Context, p entity.Profile) (entity.Profile, bool, error) {
	filter := repository.ByID(p.ID)
	filter.UserID = p.UserID
	profiles, err := d.get(ctx, filter)
	if err != nil {
		return p, false, fmt.Errorf("refresh profile %d: %w: %w", p.ID, entity.ErrStoreUnavailable, err)
	}
	for _, cur := range profiles {
		if cur.Platform == p.Platform {
			return *cur, cur.Notify, nil
		}
	}
	return p, false, nil
}

// spawn starts a dispatch goroutine unless the dispatcher is shut down.
func (d *Dispatcher) spawn(j job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.wg.Add(1)
	go d.run(j)
}

// run executes one dispatch in its own goroutine.
func (d *Dispatcher) run(j job) {
	defer d.wg.Done()

	IncrementActiveDispatches()
	defer DecrementActiveDispatches()

	log := d.jobLogger(j)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in dispatch",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case d.workerPool <- struct{}{}:
	default:
		log.Debug("worker pool full, waiting for a slot")
		RecordPoolWait()
		select {
		case d.workerPool <- struct{}{}:
		case <-d.shutdownCtx.Done():
			return
		}
	}
	defer func() { <-d.workerPool }()

	// Deliveries outlive the webhook request; only its ids are carried over.
	ctx := requestid.WithRequestID(d.shutdownCtx, j.requestID)
	ctx = trace.ContextWithSpanContext(ctx, j.parentSpan)
	d.dispatch(ctx, log, j)
}

// dispatch applies the debounce and delivers to one profile.
func (d *Dispatcher) dispatch(ctx context.Context, log *slog.Logger, j job) {
	ctx, span := d.tracer.Start(ctx, "notify.dispatch", trace.WithAttributes(
		attribute.Int64("notify.webhook_id", j.notification.WebhookID),
		attribute.String("notify.user_id", j.profile.UserID),
		attribute.Int("notify.attempt", j.attempt)))
	defer span.End()

	if j.attempt > 0 {
		cur, ok, err := d.refresh(ctx, j.profile)
		if err != nil {
			log.Error("profile refresh failed, retry dropped", slog.Any("error", err))
			RecordDispatch("store_error")
			span.RecordError(err)
			return
		}
		if !ok {
			log.Info("profile unbound or muted since the webhook, retry skipped")
			RecordDispatch("skipped")
			return
		}
		j.profile = cur
	}

	p := &j.profile
	key := debounce.Key(j.notification.WebhookID, p.UserID, j.notification.GameID)
	interval := time.Duration(p.CooldownMillis()) * time.Millisecond

	retryJob := j
	retryJob.attempt++
	decision := d.cache.Admit(key, interval, d.cache.Clock().Now(), func() { d.spawn(retryJob) })
	if decision.Suppressed {
		log.Info("notification suppressed, retry scheduled", slog.Time("retry_at", decision.RetryAt))
		RecordDispatch("suppressed")
		span.SetAttributes(attribute.Bool("notify.suppressed", true))
		return
	}

	sent := false
	defer func() {
		if !sent {
			d.cache.Abandon(key)
		}
		SetDebounceEntries(d.cache.Len())
	}()

	receipt, err := d.deliver(ctx, log, p, j.notification.Message)
	if err != nil {
		log.Error("notification not delivered", slog.Any("error", err))
		RecordDispatch("exhausted")
		span.RecordError(err)
		span.SetStatus(codes.Error, "all candidates exhausted")
		return
	}

	d.cache.RecordSend(key, d.cache.Clock().Now())
	sent = true
	RecordDispatch("delivered")
	log.Info("notification delivered",
		slog.String("bot_id", receipt.BotID),
		slog.String("group_id", receipt.GroupID),
		slog.String("mode", receipt.Mode),
		slog.Any("delivery_ids", receipt.DeliveryIDs))
}

func (d *Dispatcher) jobLogger(j job) *slog.Logger {
	return d.logger.With(
		slog.String("request_id", j.requestID),
		slog.Int64("webhook_id", j.notification.WebhookID),
		slog.String("user_id", j.profile.UserID),
		slog.String("game_id", j.notification.GameID),
		slog.String("message", j.notification.Message),
		slog.Int("attempt", j.attempt))
}

// SweepDebounce drops debounce keys idle for longer than maxAge.
func (d *Dispatcher) SweepDebounce(maxAge time.Duration) int {
	removed := d.cache.Sweep(maxAge, d.cache.Clock().Now())
	SetDebounceEntries(d.cache.Len())
	return removed
}

// Shutdown stops accepting dispatches, cancels pending debounce retries and
// waits for in-flight deliveries until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("shutting down dispatcher")

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cache.Close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.shutdownCancel()
		d.logger.Info("dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.shutdownCancel()
		d.logger.Warn("dispatcher shutdown timeout")
		return errors.Join(errors.New("dispatcher shutdown timeout"), ctx.Err())
	}
}
