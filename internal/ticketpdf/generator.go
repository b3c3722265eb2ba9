package ticketpdf

import (
	"context"
	"fmt"

	"github.com/iliyamo/theater-tickets/internal/apperr"
	"github.com/iliyamo/theater-tickets/internal/catalog"
	"github.com/iliyamo/theater-tickets/internal/model"
)

// MovieSource is the part of the catalog client the generator needs.
type MovieSource interface {
	Movie(ctx context.Context, externalID string) (*catalog.MovieDetails, error)
	Poster(ctx context.Context, posterPath string) ([]byte, string, error)
}

// Generator fetches catalog metadata and renders ticket PDFs.
type Generator struct {
	catalog MovieSource
	baseURL string
}

// NewGenerator returns a Generator printing QR codes that point under
// baseURL.
func NewGenerator(source MovieSource, baseURL string) *Generator {
	return &Generator{catalog: source, baseURL: baseURL}
}

// Generate renders t for buyerName.  Catalog failures of any kind are
// reported as apperr.ErrDependencyUnavailable; there is no fallback
// rendering without metadata.
func (g *Generator) Generate(ctx context.Context, t model.Ticket, buyerName string) ([]byte, error) {
	if !t.Verified {
		return nil, apperr.Wrap(apperr.ErrConstraintViolation, "ticket %s is not paid", t.ID)
	}
	if t.Movie == nil {
		return nil, fmt.Errorf("ticketpdf: ticket %s has no movie loaded", t.ID)
	}

	details, err := g.catalog.Movie(ctx, t.Movie.ImdbID)
	if err != nil {
		return nil, dependency("movie "+t.Movie.ImdbID, err)
	}
	poster, contentType, err := g.catalog.Poster(ctx, details.PosterPath)
	if err != nil {
		return nil, dependency("poster", err)
	}

	doc, err := Build(t, Metadata{
		Title:             details.Title,
		RuntimeMinutes:    details.Runtime,
		Language:          details.OriginalLanguage,
		Poster:            poster,
		PosterContentType: contentType,
	}, buyerName, g.baseURL)
	if err != nil {
		return nil, err
	}
	return Render(doc)
}

func dependency(what string, err error) error {
	if apperr.Kind(err) == apperr.ErrDependencyUnavailable {
		return err
	}
	return apperr.Wrap(apperr.ErrDependencyUnavailable, "catalog %s: %v", what, err)
}
