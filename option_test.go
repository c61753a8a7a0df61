package webmail

import (
	"log/slog"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		o := newOptions()
		if o.maxSubjectLength != DefaultMaxSubjectLength {
			t.Errorf("expected subject limit %d, got %d", DefaultMaxSubjectLength, o.maxSubjectLength)
		}
		if o.maxRecipientCount != DefaultMaxRecipientCount {
			t.Errorf("expected recipient limit %d, got %d", DefaultMaxRecipientCount, o.maxRecipientCount)
		}
		if o.maxConcurrentComposes != DefaultMaxConcurrentComposes {
			t.Errorf("expected concurrency %d, got %d", DefaultMaxConcurrentComposes, o.maxConcurrentComposes)
		}
		if o.shutdownTimeout != DefaultShutdownTimeout {
			t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, o.shutdownTimeout)
		}
		if o.logger == nil {
			t.Error("expected default logger")
		}
		if o.onEventPublishFailure == nil {
			t.Error("expected default event failure handler")
		}
	})

	t.Run("limits reject non-positive values", func(t *testing.T) {
		o := newOptions(
			WithMaxSubjectLength(0),
			WithMaxRecipients(-1),
			WithMaxConcurrentComposes(0),
		)
		if o.maxSubjectLength != DefaultMaxSubjectLength {
			t.Error("zero subject limit should keep default")
		}
		if o.maxRecipientCount != DefaultMaxRecipientCount {
			t.Error("negative recipient limit should keep default")
		}
		if o.maxConcurrentComposes != DefaultMaxConcurrentComposes {
			t.Error("zero concurrency should keep default")
		}
	})

	t.Run("shutdown timeout floor", func(t *testing.T) {
		o := newOptions(WithShutdownTimeout(time.Millisecond))
		if o.shutdownTimeout != DefaultShutdownTimeout {
			t.Errorf("sub-minimum timeout should keep default, got %v", o.shutdownTimeout)
		}

		o = newOptions(WithShutdownTimeout(5 * time.Second))
		if o.shutdownTimeout != 5*time.Second {
			t.Errorf("expected 5s, got %v", o.shutdownTimeout)
		}
	})

	t.Run("nil values are ignored", func(t *testing.T) {
		o := newOptions(
			WithStore(nil),
			WithResolver(nil),
			WithLogger(nil),
		)
		if o.store != nil || o.resolver != nil {
			t.Error("nil store/resolver should stay unset")
		}
		if o.logger == nil {
			t.Error("nil logger should keep default")
		}
	})

	t.Run("custom logger", func(t *testing.T) {
		l := slog.Default().With("component", "test")
		o := newOptions(WithLogger(l))
		if o.logger != l {
			t.Error("expected custom logger")
		}
	})

	t.Run("event failure handler recovers panics", func(t *testing.T) {
		o := newOptions(WithEventPublishFailureHandler(func(string, error) {
			panic("boom")
		}))
		// Must not propagate the panic.
		o.safeEventPublishFailure("MessageSent", nil)
	})
}
