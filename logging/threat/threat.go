package threat

import (
	"context"

	"aggrolog/engine/logging"
)

const (
	// EventApplied is emitted for each concrete threat-table change.
	EventApplied logging.EventType = "threat.applied"
	// EventWiped is emitted when a friendly death clears a threat row.
	EventWiped logging.EventType = "threat.wiped"
	// EventSuppressed is emitted when an interceptor skips a calculation.
	EventSuppressed logging.EventType = "threat.suppressed"
	// EventInterceptorInstalled marks a new deferred-effect closure.
	EventInterceptorInstalled logging.EventType = "threat.interceptor_installed"
	// EventInterceptorUninstalled marks a closure removing itself.
	EventInterceptorUninstalled logging.EventType = "threat.interceptor_uninstalled"
	// EventFightCompleted summarises one transduced fight.
	EventFightCompleted logging.EventType = "threat.fight_completed"
)

// AppliedPayload describes one applied threat change.
type AppliedPayload struct {
	Formula  string  `json:"formula"`
	Amount   float64 `json:"amount"`
	Absolute bool    `json:"absolute,omitempty"`
	Total    float64 `json:"total"`
	Split    bool    `json:"split,omitempty"`
}

// WipedPayload describes one death-triggered row wipe.
type WipedPayload struct {
	Entries int `json:"entries"`
}

// SuppressedPayload names the interceptor that voted skip.
type SuppressedPayload struct {
	InterceptorID string `json:"interceptorId"`
}

// InterceptorPayload describes an install or uninstall.
type InterceptorPayload struct {
	InterceptorID string `json:"interceptorId"`
	Label         string `json:"label,omitempty"`
}

// CompletedPayload summarises the transduction of one fight.
type CompletedPayload struct {
	Events    int            `json:"events"`
	Augmented int            `json:"augmented"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// Applied publishes one concrete threat change.
func Applied(ctx context.Context, pub logging.Publisher, tick uint64, actor, enemy logging.EntityRef, payload AppliedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventApplied,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{enemy},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryThreat,
		Payload:  payload,
	})
}

// Wiped publishes a death-triggered threat wipe.
func Wiped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WipedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWiped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryThreat,
		Payload:  payload,
	})
}

// Suppressed publishes an interceptor-skip outcome.
func Suppressed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SuppressedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSuppressed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryThreat,
		Payload:  payload,
	})
}

// InterceptorInstalled publishes a new interceptor registration.
func InterceptorInstalled(ctx context.Context, pub logging.Publisher, tick uint64, payload InterceptorPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInterceptorInstalled,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.InterceptorID, Kind: logging.EntityKindInterceptor},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryState,
		Payload:  payload,
	})
}

// InterceptorUninstalled publishes an interceptor self-removal.
func InterceptorUninstalled(ctx context.Context, pub logging.Publisher, tick uint64, payload InterceptorPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInterceptorUninstalled,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: payload.InterceptorID, Kind: logging.EntityKindInterceptor},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryState,
		Payload:  payload,
	})
}

// FightCompleted publishes the end-of-fight summary.
func FightCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload CompletedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFightCompleted,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: "fight", Kind: logging.EntityKindFight},
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
