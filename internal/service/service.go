// Package service contains the business rules of Flash Gig.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, publishes events
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and a context, never *http.Request, and return
// apperror kinds rather than status codes. The same services back the HTTP
// handlers and the offline admin commands.
//
// CALLER IDENTITY:
// When the HTTP layer authenticated the request it stores the username in
// the context (auth.WithUsername). Services compare it against the
// identity fields in the payload. Anonymous calls are accepted unchanged.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/flashgig/internal/apperror"
	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/model"
)

// Publisher receives domain events after a successful write. The websocket
// hub implements it; nil disables publishing.
type Publisher interface {
	Publish(topics []string, ev model.Event)
}

func publish(p Publisher, ev model.Event, topics ...string) {
	if p == nil {
		return
	}
	p.Publish(topics, ev)
}

// requireSelf returns a Forbidden error when the context carries an
// authenticated user different from username.
func requireSelf(ctx context.Context, username, message string) error {
	caller, ok := auth.UsernameFromContext(ctx)
	if ok && caller != username {
		return apperror.Forbidden(message)
	}
	return nil
}

// requireRequired is the common "all of these must be non-empty" check.
func requireRequired(field, message string, values ...string) error {
	for _, v := range values {
		if v == "" {
			return apperror.ValidationFailed(field, message)
		}
	}
	return nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func errAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
