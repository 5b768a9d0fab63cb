package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neexbeast/relocation/internal/destination"
	"github.com/neexbeast/relocation/internal/view"
)

const (
	msgDestinationError = "Error loading destination data. Please try again."
	msgPreferencesSaved = "Noted! I'll tailor recommendations based on your preferences."
)

// DestinationReader is the store access the dispatcher needs.
type DestinationReader interface {
	GetBySlug(ctx context.Context, slug string) (*destination.Destination, error)
	Search(ctx context.Context, query string, limit int) ([]*destination.Destination, error)
}

// Dispatcher executes tool commands against a session.
type Dispatcher struct {
	store DestinationReader
	views *view.Generator
	log   *slog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store DestinationReader, log *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, views: view.NewGenerator(store, log), log: log}
}

// Dispatch runs cmd, mutating st in place, and returns the confirmation text
// for the assistant. Failures are reported in the text, never as errors.
// Callers persist st afterwards.
func (d *Dispatcher) Dispatch(ctx context.Context, st *State, cmd Command) string {
	switch c := cmd.(type) {
	case ShowDestination:
		return d.showDestination(ctx, st, c)
	case SavePreferences:
		st.Preferences.Merge(Preferences{Budget: c.Budget, Climate: c.Climate, Purpose: c.Purpose})
		return msgPreferencesSaved
	case GenerateCustomView:
		return d.generateCustomView(ctx, st, c)
	default:
		return fmt.Sprintf("Unsupported tool %q.", cmd.Tool())
	}
}

func (d *Dispatcher) showDestination(ctx context.Context, st *State, c ShowDestination) string {
	dest, err := d.lookup(ctx, c.Country)
	if err != nil {
		d.log.Error("show_destination lookup failed", "country", c.Country, "err", err)
		return msgDestinationError
	}
	if dest == nil {
		return fmt.Sprintf("I couldn't find detailed data for %q. Try one of our featured destinations!", c.Country)
	}

	v := view.Dashboard(dest)
	st.CurrentView = &v
	return fmt.Sprintf("Showing dashboard for %s.", dest.CountryName)
}

// lookup resolves a country by slug, falling back to the best search hit.
func (d *Dispatcher) lookup(ctx context.Context, country string) (*destination.Destination, error) {
	dest, err := d.store.GetBySlug(ctx, destination.Slugify(country))
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", country, err)
	}
	if dest != nil {
		return dest, nil
	}

	hits, err := d.store.Search(ctx, country, 1)
	if err != nil {
		return nil, fmt.Errorf("searching for %s: %w", country, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return hits[0], nil
}

func (d *Dispatcher) generateCustomView(ctx context.Context, st *State, c GenerateCustomView) string {
	res := d.views.Generate(ctx, c.Request)
	st.CurrentView = &res.View

	msg := fmt.Sprintf("Generated custom %s view for %s. The visualization is now displayed.", c.ViewType, c.Countries)
	if len(res.Unresolved) > 0 {
		msg += fmt.Sprintf(" No data was found for: %s.", strings.Join(res.Unresolved, ", "))
	}
	return msg
}
