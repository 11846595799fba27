package content

import (
	"context"
	"time"
)

// Index names reported by Catalog.Indexes.
const (
	IndexReviewState          = "review_state"
	IndexPortalType           = "portal_type"
	IndexEffectiveRange       = "effectiveRange"
	IndexExpires              = "expires"
	IndexEnableAutopublishing = "enableAutopublishing"
	IndexPath                 = "path"
)

// AllIndexes lists every index a complete catalog provides.
var AllIndexes = []string{
	IndexReviewState,
	IndexPortalType,
	IndexEffectiveRange,
	IndexExpires,
	IndexEnableAutopublishing,
	IndexPath,
}

var (
	// FloorDate is the indexed effective date of items with no effective date.
	FloorDate = time.Date(1000, time.January, 1, 0, 0, 0, 0, time.UTC)

	// CeilingDate is the indexed expiration date of items with no expiration date.
	CeilingDate = time.Date(2499, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Item is a content object held by the catalog.
type Item struct {
	ID         string `json:"id" yaml:"id"`
	Path       string `json:"path" yaml:"path"`
	Title      string `json:"title" yaml:"title"`
	PortalType string `json:"portal_type" yaml:"portal_type"`

	// ReviewState is the current workflow state.
	ReviewState string `json:"review_state" yaml:"review_state"`

	// EffectiveDate is when the item should become visible. Nil if unset.
	EffectiveDate *time.Time `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`

	// ExpirationDate is when the item should be withdrawn. Nil if unset.
	ExpirationDate *time.Time `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty"`

	// EnableAutopublishing opts the item into scheduled transitions.
	// It is cleared once the autopublisher has acted on the item.
	EnableAutopublishing bool `json:"enable_autopublishing" yaml:"enable_autopublishing"`

	Modified time.Time `json:"modified" yaml:"modified,omitempty"`
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	if i.EffectiveDate != nil {
		t := *i.EffectiveDate
		c.EffectiveDate = &t
	}
	if i.ExpirationDate != nil {
		t := *i.ExpirationDate
		c.ExpirationDate = &t
	}
	return &c
}

// SetExpirationDate sets the expiration date.
func (i *Item) SetExpirationDate(t time.Time) {
	i.ExpirationDate = &t
}

// Brain is a catalog search hit carrying indexed metadata only.
type Brain struct {
	ID                   string    `json:"id"`
	Path                 string    `json:"path"`
	PortalType           string    `json:"portal_type"`
	ReviewState          string    `json:"review_state"`
	Effective            time.Time `json:"effective"`
	Expires              time.Time `json:"expires"`
	EnableAutopublishing bool      `json:"enable_autopublishing"`
}

// IndexedEffective returns the effective date as the catalog indexes it.
func IndexedEffective(item *Item) time.Time {
	if item.EffectiveDate == nil {
		return FloorDate
	}
	return item.EffectiveDate.UTC()
}

// IndexedExpires returns the expiration date as the catalog indexes it.
func IndexedExpires(item *Item) time.Time {
	if item.ExpirationDate == nil {
		return CeilingDate
	}
	return item.ExpirationDate.UTC()
}

// BrainFor builds the catalog entry for an item.
func BrainFor(item *Item) *Brain {
	return &Brain{
		ID:                   item.ID,
		Path:                 item.Path,
		PortalType:           item.PortalType,
		ReviewState:          item.ReviewState,
		Effective:            IndexedEffective(item),
		Expires:              IndexedExpires(item),
		EnableAutopublishing: item.EnableAutopublishing,
	}
}

// Query filters catalog searches. All set fields must match.
type Query struct {
	// ReviewStates matches brains in any of the given states.
	ReviewStates []string

	// PortalTypes matches brains of any of the given types.
	PortalTypes []string

	// EffectiveAt matches brains whose indexed effective range covers the
	// instant: Effective <= t <= Expires.
	EffectiveAt *time.Time

	// ExpiresBefore matches brains with indexed Expires <= t.
	ExpiresBefore *time.Time

	// AutopublishOnly matches brains with EnableAutopublishing set.
	AutopublishOnly bool

	// PathPrefix restricts results to a subtree.
	PathPrefix string

	// Limit caps the number of results. 0 means unlimited.
	Limit int
}

// Matches reports whether a brain satisfies the query.
func (q *Query) Matches(b *Brain) bool {
	if len(q.ReviewStates) > 0 && !contains(q.ReviewStates, b.ReviewState) {
		return false
	}
	if len(q.PortalTypes) > 0 && !contains(q.PortalTypes, b.PortalType) {
		return false
	}
	if q.EffectiveAt != nil {
		if b.Effective.After(*q.EffectiveAt) || b.Expires.Before(*q.EffectiveAt) {
			return false
		}
	}
	if q.ExpiresBefore != nil && b.Expires.After(*q.ExpiresBefore) {
		return false
	}
	if q.AutopublishOnly && !b.EnableAutopublishing {
		return false
	}
	if q.PathPrefix != "" && !hasPathPrefix(b.Path, q.PathPrefix) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || prefix[len(prefix)-1] == '/' || path[len(prefix)] == '/'
}

// Catalog stores items and answers indexed searches.
type Catalog interface {
	// Get loads the live item. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Item, error)

	// Put inserts or replaces an item and reindexes it.
	Put(ctx context.Context, item *Item) error

	// Delete removes an item. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Search returns the brains matching the query, ordered by path.
	Search(ctx context.Context, query *Query) ([]*Brain, error)

	// List returns all items ordered by path.
	List(ctx context.Context) ([]*Item, error)

	// Indexes names the indexes the catalog maintains.
	Indexes(ctx context.Context) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// HasIndex reports whether the catalog maintains the named index.
func HasIndex(ctx context.Context, c Catalog, name string) (bool, error) {
	indexes, err := c.Indexes(ctx)
	if err != nil {
		return false, err
	}
	return contains(indexes, name), nil
}
