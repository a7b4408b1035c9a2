package services

import (
	"context"
	"sync"
	"time"

	"github.com/hmsultra/claimsengine/internal/domain/entities"
	"github.com/hmsultra/claimsengine/internal/domain/providers"
	"github.com/hmsultra/claimsengine/internal/infrastructure/observability"
)

const defaultSideEffectTimeout = 5 * time.Second

// SideEffectDispatcher delivers notifications and audit entries after a transaction
// commits. Delivery runs in the background and failures are only logged.
type SideEffectDispatcher struct {
	notifier providers.Notifier
	auditor  providers.AuditLogger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewSideEffectDispatcher creates a dispatcher. Either collaborator may be nil.
func NewSideEffectDispatcher(notifier providers.Notifier, auditor providers.AuditLogger, timeout time.Duration) *SideEffectDispatcher {
	if timeout <= 0 {
		timeout = defaultSideEffectTimeout
	}
	return &SideEffectDispatcher{
		notifier: notifier,
		auditor:  auditor,
		timeout:  timeout,
	}
}

// Dispatch sends event and entry without blocking the caller. Either may be nil.
func (d *SideEffectDispatcher) Dispatch(ctx context.Context, event *entities.ClaimEvent, entry *entities.AuditEntry) {
	if d == nil {
		return
	}
	if event != nil && d.notifier != nil {
		d.run(ctx, func(ctx context.Context) {
			if err := d.notifier.Notify(ctx, event); err != nil {
				observability.ClaimLogger(ctx, event.ClaimID).Warn().Err(err).
					Str("event_type", string(event.Type)).
					Msg("failed to deliver claim notification")
			}
		})
	}
	if entry != nil && d.auditor != nil {
		d.run(ctx, func(ctx context.Context) {
			if err := d.auditor.Log(ctx, entry); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).
					Str("action", string(entry.Action)).
					Str("entity_type", entry.EntityType).
					Str("entity_id", entry.EntityID).
					Msg("failed to write audit entry")
			}
		})
	}
}

func (d *SideEffectDispatcher) run(ctx context.Context, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		fn(bgCtx)
	}()
}

// Wait blocks until every dispatched side effect has finished
func (d *SideEffectDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
