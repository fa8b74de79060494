// Package service holds the business rules between the HTTP handlers and the
// repositories.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/realsbd/bicxchange/internal/model"
	"github.com/realsbd/bicxchange/internal/pkg"
)

const (
	EventUserCreated      = "user.created"
	EventUserDeleted      = "user.deleted"
	EventCommunityCreated = "community.created"
	EventCommunityDeleted = "community.deleted"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	ID    string
	Scope model.Roles
}

func (c Caller) IsAdmin() bool { return c.Scope.Has(model.RoleAdmin) }

// SessionStore keeps the single live access token of each user.
type SessionStore interface {
	Add(ctx context.Context, userID, token string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// notifier publishes lifecycle events once the write has committed.
// Failures are logged and never reach the caller.
type notifier struct {
	pub pkg.Publisher
	log zerolog.Logger
}

func newNotifier(pub pkg.Publisher, log zerolog.Logger) notifier {
	if pub == nil {
		pub = pkg.NewLogPublisher(log)
	}
	return notifier{pub: pub, log: log}
}

func (n notifier) emit(ctx context.Context, typ, id string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	ev := pkg.Event{Type: typ, EntityID: id, At: time.Now().UTC(), Data: data}
	if err := n.pub.Publish(ctx, ev); err != nil {
		n.log.Warn().Err(err).Str("event", typ).Str("entity_id", id).Msg("publish event")
	}
}
