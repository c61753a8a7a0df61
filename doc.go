// Package webmail provides the core of a single-process webmail system.
//
// Messages never leave the process: composing a message fans it out into one
// mailbox entry per participant (the sender plus every resolved recipient),
// and each participant owns their copy independently. Read, archive, and
// delete act on one copy without touching the others.
//
// # Basic Usage
//
//	// In-memory backends for testing
//	users := identity.NewMemoryStore()
//	entries := memory.New()
//
//	svc, err := webmail.NewService(
//	    webmail.WithStore(entries),
//	    webmail.WithIdentityStore(users),
//	    webmail.WithResolver(resolver.NewIdentityResolver(users)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Connect initializes indexes/schema
//	if err := svc.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	// Get a mailbox client for a user
//	mb := svc.Client(alice.ID)
//
//	// Send a message
//	result, err := mb.Compose(ctx, "bob@example.com, carol@example.com",
//	    "Hello", "World")
//
// # Mailbox Operations
//
//   - Compose: fan a message out to recipients by email
//   - Get: retrieve an entry by ID
//   - Inbox/Sent/Archive: the three mailbox views
//   - UpdateFlags: partial read/archived updates
//   - Delete: remove the caller's copy only
//
// # Storage Backends
//
// The store package provides implementations for:
//   - PostgreSQL (store/postgres) - accepts *sqlx.DB
//   - MongoDB (store/mongo) - accepts *mongo.Client
//   - In-memory (store/memory) - for testing
//
// # Events
//
// Webmail provides typed events for message lifecycle notifications.
// Events use the github.com/rbaliyan/event/v3 library which supports
// multiple transports. Pass WithRedisClient or WithEventTransport when
// creating the service; without either, events go to a noop transport.
//
//	svc.Events().MessageSent.Subscribe(ctx, func(ctx context.Context, e webmail.MessageSentEvent) error {
//	    // notify recipients
//	    return nil
//	})
package webmail
