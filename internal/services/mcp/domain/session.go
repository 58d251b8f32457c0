package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// toolTimeout bounds one tool invocation end to end.
const toolTimeout = 10 * time.Second

func boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, toolTimeout)
}

// requireSession authenticates the context fingerprint against the identity
// service. Tools that act on behalf of a gardener call this first.
func requireSession(ctx context.Context, identitySvc *identity.Service, getContext func() Context) (identity.Session, Context, error) {
	current := Context{}
	if getContext != nil {
		current = getContext()
	}
	if current.Fingerprint == "" {
		return identity.Session{}, current, fmt.Errorf("no certificate fingerprint in context; call set_context first")
	}
	session, err := identitySvc.Resolve(ctx, current.Fingerprint)
	if err != nil {
		return identity.Session{}, current, userError(current.Locale, err)
	}
	return session, current, nil
}

// userError renders domain failures as the localized message a gardener
// should read. Wiring errors pass through untouched.
func userError(locale string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return errors.New(apperrors.UserMessage(appErr, locale))
	}
	return err
}

// formatTime renders timestamps for tool results. Zero times render empty
// so omitempty drops them.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
