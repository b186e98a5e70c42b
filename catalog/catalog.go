// Package catalog provides the searchable lists of named entities
// (enterprises, products, services, templates) that back dropdown columns.
package catalog

import (
	"context"
	"strings"

	"github.com/rainycape/unidecode"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
)

// Kind names a catalog.
type Kind string

const (
	KindEnterprise Kind = "enterprise"
	KindProduct    Kind = "product"
	KindService    Kind = "service"
	KindTemplate   Kind = "template"
)

// Kinds lists every known catalog.
var Kinds = []Kind{KindEnterprise, KindProduct, KindService, KindTemplate}

// ParseKind accepts a kind in singular or plural form.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", apperrors.New(apperrors.ErrClassValidation, "parse_kind", "unknown catalog kind").WithContext("kind", s)
}

// Resource is the REST collection serving the catalog.
func (k Kind) Resource() string {
	return string(k) + "s"
}

// Entry is one catalog item.
type Entry struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug,omitempty" db:"slug"`
}

// Source looks up and extends catalogs.
type Source interface {
	List(ctx context.Context, kind Kind, query string) ([]Entry, error)
	Create(ctx context.Context, kind Kind, name string) (Entry, error)
}

var slugReplacer = strings.NewReplacer(
	"&", " and ",
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
)

// Slug returns a lowercase ascii identifier for name.
func Slug(name string) string {
	s := strings.ToLower(unidecode.Unidecode(slugReplacer.Replace(strings.TrimSpace(name))))

	var bld strings.Builder
	bld.Grow(len(s))
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			bld.WriteRune(r)
			dash = false
			continue
		}
		if !dash && bld.Len() > 0 {
			bld.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(bld.String(), "-")
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].Name
	}
	return out
}
