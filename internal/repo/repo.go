package repo

import (
	"context"
	"errors"

	"github.com/presenca/attendance-notify/internal/model"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type UserRepository interface {
	// Authenticate is the single credential-verification entry point;
	// upgrading to a hashed scheme must not touch callers.
	Authenticate(ctx context.Context, username, password string) (model.Identity, error)
}

type TemplateRepository interface {
	// ActiveTemplate returns the current template body, or the built-in
	// default when none has been saved yet.
	ActiveTemplate(ctx context.Context) (string, error)
	SetTemplate(ctx context.Context, body string) error
}

type AuditRepository interface {
	Append(ctx context.Context, rec model.DispatchRecord) (int64, error)
	// Query filters on exact date and class, in insertion order.
	Query(ctx context.Context, date, class string) ([]model.DispatchRecord, error)
}
