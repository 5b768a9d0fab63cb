package api

import (
	"context"

	"github.com/neexbeast/relocation/internal/chat"
	"github.com/neexbeast/relocation/internal/destination"
	"github.com/neexbeast/relocation/internal/images"
)

// DestinationRepo defines the read-only storage operations needed by handlers.
type DestinationRepo interface {
	GetBySlug(ctx context.Context, slug string) (*destination.Destination, error)
	Search(ctx context.Context, query string, limit int) ([]*destination.Destination, error)
	ListEnabled(ctx context.Context) ([]*destination.Destination, error)
}

// SessionStore defines the session persistence needed by handlers.
type SessionStore interface {
	Create(ctx context.Context) (*chat.State, error)
	Get(ctx context.Context, id string) (*chat.State, error)
	Save(ctx context.Context, st *chat.State) error
}

// ToolDispatcher executes parsed tool commands against a session.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, st *chat.State, cmd chat.Command) string
}

// ChatRuntime answers a free-text message, possibly running tools.
type ChatRuntime interface {
	Reply(ctx context.Context, st *chat.State, message string) (string, error)
}

// ImageSearcher finds photos for a query.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) images.Result
}

// VoiceTokens issues access tokens for the speech service.
type VoiceTokens interface {
	AccessToken(ctx context.Context) (string, error)
}
