// Package content defines the content catalog used by the autopublisher.
//
// # Items and Brains
//
// An Item is the live content object. Its EffectiveDate and ExpirationDate are
// nil when the editor never set them.
//
// A Brain is a catalog search hit. It only carries indexed metadata, and its
// Effective and Expires fields are always populated: an unset effective date
// indexes as FloorDate and an unset expiration date indexes as CeilingDate.
// Searching by date therefore matches items whose real dates are unset, so
// callers that care about the real dates must load the Item:
//
//	brains, err := catalog.Search(ctx, &content.Query{
//	    ReviewStates:    []string{"private"},
//	    EffectiveAt:     &now,
//	    AutopublishOnly: true,
//	})
//	for _, b := range brains {
//	    item, err := catalog.Get(ctx, b.ID)
//	    ...
//	}
//
// # Backends
//
// Implementations live in the storage subpackage: an in-memory catalog for
// tests and development, and a SQLite catalog for production.
package content
