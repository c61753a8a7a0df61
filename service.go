package webmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"github.com/rbaliyan/webmail/identity"
	"github.com/rbaliyan/webmail/store"
	"golang.org/x/sync/semaphore"
)

// Connection states for the service.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// service is the default implementation of Service.
type service struct {
	store      store.Store
	identity   identity.Store
	resolver   RecipientResolver
	logger     *slog.Logger
	opts       *options
	state      int32 // stateDisconnected, stateConnecting, or stateConnected
	otel       *otelInstrumentation
	composeSem *semaphore.Weighted // Limits concurrent fan-outs to prevent resource exhaustion
	eventBus   *event.Bus          // Event bus for publishing events
	events     *ServiceEvents      // Per-service event instances
}

// NewService creates a new webmail service.
// Call Connect() to establish connections to backends.
//
// A store and a resolver are required. An identity store is required only
// when DeleteUser is used; see WithIdentityStore.
func NewService(opts ...Option) (Service, error) {
	o := newOptions(opts...)

	if o.store == nil {
		return nil, ErrStoreRequired
	}
	if o.resolver == nil {
		return nil, ErrResolverRequired
	}

	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	return &service{
		store:      o.store,
		identity:   o.identity,
		resolver:   o.resolver,
		logger:     o.logger,
		opts:       o,
		otel:       otelInstr,
		composeSem: semaphore.NewWeighted(int64(o.maxConcurrentComposes)),
	}, nil
}

// Events returns per-service event instances for subscribing and publishing.
func (s *service) Events() *ServiceEvents {
	return s.events
}

// IsConnected returns true if the service is connected and ready.
func (s *service) IsConnected() bool {
	return atomic.LoadInt32(&s.state) == stateConnected
}

// Connect establishes connections to storage backends.
func (s *service) Connect(ctx context.Context) error {
	// Use three-state to prevent Client() from seeing partial initialization
	// stateDisconnected -> stateConnecting -> stateConnected
	if !atomic.CompareAndSwapInt32(&s.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	// Reset to disconnected on failure, set to connected on success
	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&s.state, stateConnected)
		} else {
			atomic.StoreInt32(&s.state, stateDisconnected)
		}
	}()

	if err := s.store.Connect(ctx); err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	if s.identity != nil {
		if err := s.identity.Connect(ctx); err != nil {
			s.store.Close(ctx)
			return fmt.Errorf("connect identity store: %w", err)
		}
	}

	if err := s.initEventBus(ctx); err != nil {
		if s.identity != nil {
			s.identity.Close(ctx)
		}
		s.store.Close(ctx)
		return fmt.Errorf("init event bus: %w", err)
	}

	success = true
	s.logger.Info("webmail service connected")
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this service.
// Each service creates its own bus and its own event instances.
func (s *service) initEventBus(ctx context.Context) error {
	serviceName := s.opts.serviceName
	if serviceName == "" {
		serviceName = "webmail"
	}
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case s.opts.eventTransport != nil:
		s.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(s.opts.eventTransport))
	case s.opts.redisClient != nil:
		s.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(s.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		s.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.eventBus = bus

	// Create and register per-service events (unique per service instance).
	s.events = newServiceEvents(busName)
	if err := registerServiceEvents(ctx, bus, s.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register service events: %w", err)
	}

	return nil
}

// Close closes connections to storage backends.
func (s *service) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// Wait for in-flight compose operations to complete (graceful shutdown).
	// After setting state to disconnected, no new composes can start because
	// checkAccess fails. We acquire all semaphore slots to wait for existing
	// operations to finish.
	s.logger.Info("waiting for in-flight operations to complete...", "timeout", s.opts.shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := s.composeSem.Acquire(shutdownCtx, int64(s.opts.maxConcurrentComposes)); err != nil {
		s.logger.Warn("timeout waiting for in-flight operations, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		s.composeSem.Release(int64(s.opts.maxConcurrentComposes))
		s.logger.Info("all in-flight operations completed")
	}

	// Close event bus only if using a real transport.
	// For noop transport, the bus doesn't hold resources.
	if s.eventBus != nil && (s.opts.eventTransport != nil || s.opts.redisClient != nil) {
		if err := s.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	if s.identity != nil {
		if err := s.identity.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close identity store: %w", err))
		}
	}

	if err := s.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	return errors.Join(errs...)
}

// Client returns a mailbox client for the given user.
func (s *service) Client(userID int64) Mailbox {
	return &userMailbox{
		userID:  userID,
		service: s,
	}
}

// DeleteUser removes a user account and the entries the user owns.
//
// Entries where the user is the sender of record protect the account:
// recipients still hold copies naming the sender, so deletion fails with
// ErrSenderProtected until those copies are gone. Entries the user merely
// owns are removed along with the account.
func (s *service) DeleteUser(ctx context.Context, userID int64) error {
	if atomic.LoadInt32(&s.state) != stateConnected {
		return ErrNotConnected
	}
	if s.identity == nil {
		return ErrIdentityRequired
	}
	if userID <= 0 {
		return ErrInvalidID
	}

	sent, err := s.store.CountBySender(ctx, userID)
	if err != nil {
		return fmt.Errorf("count sent entries: %w", err)
	}
	if sent > 0 {
		return fmt.Errorf("%w: %d entries", ErrSenderProtected, sent)
	}

	deleted, err := s.store.DeleteByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete owned entries: %w", err)
	}

	if err := s.identity.Delete(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("deleted user", "user_id", userID, "entries_removed", deleted)
	return nil
}

// userMailbox is the default implementation of Mailbox.
type userMailbox struct {
	userID  int64
	service *service
}

// UserID returns the user ID of this mailbox.
func (m *userMailbox) UserID() int64 {
	return m.userID
}

// isConnected checks if the service is connected.
func (m *userMailbox) isConnected() bool {
	return atomic.LoadInt32(&m.service.state) == stateConnected
}

// checkAccess verifies the mailbox is ready for operations.
// Returns ErrNotConnected if service isn't connected,
// or ErrInvalidID if the user ID is not a positive integer.
func (m *userMailbox) checkAccess() error {
	if !m.isConnected() {
		return ErrNotConnected
	}
	if m.userID <= 0 {
		return ErrInvalidID
	}
	return nil
}
