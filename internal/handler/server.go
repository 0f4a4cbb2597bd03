// Package handler implements the HTTP surface of labelcase: the host's label
// and item API, the health and metrics endpoints, and the admin screens that
// drive the lowercase plugin.
// All handlers are methods on Server. Methods are split into files by area
// (health.go, label.go, item.go, admin.go) but share the same struct.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/lowercase"
)

// LabelServicer defines the label operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type LabelServicer interface {
	Create(ctx context.Context, payload any) (domain.Label, error)
	Update(ctx context.Context, id int64, payload any) (domain.Label, error)
	Import(ctx context.Context, names []string) ([]domain.Label, error)
	GetByID(ctx context.Context, id int64) (domain.Label, error)
	ListPaged(ctx context.Context, prefix string, p domain.PaginationParams) ([]domain.Label, int64, error)
}

// ItemServicer defines the item operations the handlers depend on.
type ItemServicer interface {
	Create(ctx context.Context, in domain.ItemInput) (domain.Item, error)
	Update(ctx context.Context, id uuid.UUID, in domain.ItemInput) (domain.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Item, error)
}

// Converter is the plugin surface used by the admin handlers.
// *lowercase.Plugin satisfies it.
type Converter interface {
	ConvertAll(ctx context.Context) (int, error)
	ConvertOne(ctx context.Context, id int64) (lowercase.Result, error)
	Stats(ctx context.Context, limit int) (lowercase.Stats, error)
	T(msg string) string
}

// TokenIssuer signs and checks the anti-replay tokens embedded in admin forms.
// *auth.Issuer satisfies it.
type TokenIssuer interface {
	IssueActionToken(subject, action string) (string, error)
	VerifyActionToken(token, subject, action string) error
}

// BulkActions looks up the label-list bulk actions. *hooks.Registry satisfies it.
type BulkActions interface {
	BulkActions() []hooks.BulkAction
	BulkAction(name string) (hooks.BulkAction, bool)
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps bundles the collaborators of a Server. Nil fields disable the routes
// that need them, which keeps focused handler tests short.
type Deps struct {
	Labels     LabelServicer
	Items      ItemServicer
	Converter  Converter
	Tokens     TokenIssuer
	Bulk       BulkActions
	DB         Pinger
	Metrics    http.Handler
	Log        *slog.Logger
	SampleSize int
}

// Server holds the dependencies shared by every handler.
type Server struct {
	labels     LabelServicer
	items      ItemServicer
	converter  Converter
	tokens     TokenIssuer
	bulk       BulkActions
	db         Pinger
	metrics    http.Handler
	log        *slog.Logger
	sampleSize int
	validate   *validator.Validate
}

// DefaultSampleSize is how many labels the statistics card lists.
const DefaultSampleSize = 10

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.SampleSize <= 0 {
		d.SampleSize = DefaultSampleSize
	}
	return &Server{
		labels:     d.Labels,
		items:      d.Items,
		converter:  d.Converter,
		tokens:     d.Tokens,
		bulk:       d.Bulk,
		db:         d.DB,
		metrics:    d.Metrics,
		log:        d.Log,
		sampleSize: d.SampleSize,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// compile-time checks: the production collaborators satisfy the handler ports.
var (
	_ Converter   = (*lowercase.Plugin)(nil)
	_ TokenIssuer = (*auth.Issuer)(nil)
	_ BulkActions = (*hooks.Registry)(nil)
)
