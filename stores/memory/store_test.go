package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"badge-studio/core"
)

func newBadge(first string, at time.Time) *core.StoredBadge {
	return &core.StoredBadge{
		FirstName: first,
		LastName:  "Kone",
		ImageType: "image/png",
		Image:     []byte("png-" + first),
		CreatedAt: at,
	}
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	badge := newBadge("Awa", time.Time{})
	id, err := store.Create(ctx, badge)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("Create() returned invalid ID length: got %d, want 26", len(id))
	}
	if badge.ID != id {
		t.Errorf("Create() did not set badge ID: got %q, want %q", badge.ID, id)
	}
	if badge.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}
}

func TestFindID_ReturnsBytes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	badge := newBadge("Awa", time.Now())
	badge.ThumbnailType = "image/jpeg"
	badge.Thumbnail = []byte("jpeg")
	id, err := store.Create(ctx, badge)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	badge.Image[0] = 'X'

	got, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if !bytes.Equal(got.Image, []byte("png-Awa")) {
		t.Errorf("FindID() image mismatch: got %q", got.Image)
	}
	if !got.HasThumbnail() || string(got.Thumbnail) != "jpeg" {
		t.Errorf("FindID() thumbnail mismatch: got %q", got.Thumbnail)
	}
}

func TestFindID_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.FindID(context.Background(), "nonexistent-id")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindID() error = %v, want ErrNotFound", err)
	}
}

func TestList_NewestFirstWithoutBytes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, newBadge(name, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	badges, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(badges) != 3 {
		t.Fatalf("List() returned %d badges, want 3", len(badges))
	}
	want := []string{"c", "b", "a"}
	for i, b := range badges {
		if b.FirstName != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, b.FirstName, want[i])
		}
		if b.Image != nil {
			t.Errorf("List()[%d] carries image bytes", i)
		}
	}
}

func TestDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, _ := store.Create(ctx, newBadge("Awa", time.Now()))
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.FindID(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindID() after Delete() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestItems(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.GetItem(ctx, "badgeGallery"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetItem() on missing key error = %v, want ErrNotFound", err)
	}
	if err := store.SetItem(ctx, "badgeGallery", []byte("[]")); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}
	got, err := store.GetItem(ctx, "badgeGallery")
	if err != nil || string(got) != "[]" {
		t.Errorf("GetItem() = %q, %v", got, err)
	}
	if err := store.RemoveItem(ctx, "badgeGallery"); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if _, err := store.GetItem(ctx, "badgeGallery"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetItem() after RemoveItem() error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Create(ctx, newBadge(fmt.Sprintf("n%d", i), time.Time{})); err != nil {
				t.Errorf("Create() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	badges, _ := store.List(ctx)
	if len(badges) != 50 {
		t.Errorf("List() returned %d badges, want 50", len(badges))
	}
}
