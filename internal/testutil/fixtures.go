// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/content/storage"
)

// Now is the fixed instant fixtures are built around.
var Now = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// Hours returns Now shifted by n hours.
func Hours(n int) *time.Time {
	return TimePtr(Now.Add(time.Duration(n) * time.Hour))
}

// TestItem creates an autopublishing-enabled document at /site/<id>.
func TestItem(id, state string, effective, expires *time.Time) *content.Item {
	return &content.Item{
		ID:                   id,
		Path:                 "/site/" + id,
		Title:                strings.ToUpper(id[:1]) + id[1:],
		PortalType:           "Document",
		ReviewState:          state,
		EffectiveDate:        effective,
		ExpirationDate:       expires,
		EnableAutopublishing: true,
		Modified:             Now.Add(-24 * time.Hour),
	}
}

// NewCatalog returns a memory catalog holding items.
func NewCatalog(t *testing.T, items ...*content.Item) *storage.MemoryStorage {
	t.Helper()
	catalog := storage.NewMemoryStorage()
	for _, item := range items {
		if err := catalog.Put(context.Background(), item); err != nil {
			t.Fatalf("failed to seed catalog with %s: %v", item.ID, err)
		}
	}
	return catalog
}

// MustGet loads an item or fails the test.
func MustGet(t *testing.T, catalog content.Catalog, id string) *content.Item {
	t.Helper()
	item, err := catalog.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load %s: %v", id, err)
	}
	return item
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertContains fails the test if haystack does not contain needle.
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("expected %q to contain %q", haystack, needle)
	}
}

// WaitForCondition polls condition until it holds or timeout passes.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for condition: %s", message)
}
