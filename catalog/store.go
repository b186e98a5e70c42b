package catalog

import (
	"context"
	"strings"

	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
)

// Store serves catalogs from the console database.
type Store struct {
	db *database.DB
}

// NewStore returns a Source reading the catalog tables of db.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) resource(kind Kind) (*database.Resource, error) {
	res, err := database.Lookup(kind.Resource())
	if err != nil || !res.Catalog {
		return nil, apperrors.New(apperrors.ErrClassValidation, "catalog_resource", "unknown catalog kind").WithContext("kind", string(kind))
	}
	return res, nil
}

// List returns the entries of kind whose name or slug contains query.
func (s *Store) List(ctx context.Context, kind Kind, query string) ([]Entry, error) {
	res, err := s.resource(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.List(ctx, res, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassCatalog, "list", err).WithContext("kind", string(kind))
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(row))
	}
	return entries, nil
}

// Create adds name to the catalog. Creating a name whose slug already
// exists returns the existing entry.
func (s *Store) Create(ctx context.Context, kind Kind, name string) (Entry, error) {
	name = strings.TrimSpace(name)
	slug := Slug(name)
	if slug == "" {
		return Entry{}, apperrors.New(apperrors.ErrClassValidation, "create", "name must not be empty").WithContext("kind", string(kind))
	}
	res, err := s.resource(kind)
	if err != nil {
		return Entry{}, err
	}

	row, err := s.db.FindBy(ctx, res, "slug", slug)
	if err == nil {
		return entryFromRow(row), nil
	}
	if !apperrors.IsClass(err, apperrors.ErrClassNotFound) {
		return Entry{}, apperrors.Wrap(apperrors.ErrClassCatalog, "create", err)
	}

	row, err = s.db.Create(ctx, res, map[string]any{"name": name, "slug": slug})
	if err != nil {
		return Entry{}, apperrors.Wrap(apperrors.ErrClassCatalog, "create", err).WithContext("kind", string(kind))
	}
	return entryFromRow(row), nil
}

func entryFromRow(row database.Row) Entry {
	str := func(key string) string {
		s, _ := row[key].(string)
		return s
	}
	return Entry{ID: str("id"), Name: str("name"), Slug: str("slug")}
}
