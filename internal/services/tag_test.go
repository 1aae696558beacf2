package services

import (
	"context"
	"errors"
	"testing"

	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

func newTagServiceForTest() (*TagService, *fakeTagRepo, *fakeNoteRepo) {
	tags := newFakeTagRepo()
	notes := newFakeNoteRepo()
	return NewTagService(tags, notes), tags, notes
}

func TestTagCreateDefaultsColor(t *testing.T) {
	svc, _, _ := newTagServiceForTest()
	ctx := context.Background()

	plain, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "inbox"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if plain.Color != types.DefaultTagColor {
		t.Fatalf("expected default color %q, got %q", types.DefaultTagColor, plain.Color)
	}

	custom, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "urgent", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create with color: %v", err)
	}
	if custom.Color != "#ff0000" {
		t.Fatalf("explicit color must win, got %q", custom.Color)
	}
}

func TestTagOperationsAreOwnerScoped(t *testing.T) {
	svc, _, _ := newTagServiceForTest()
	ctx := context.Background()

	tag, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A foreign tag behaves exactly like a missing one.
	if _, err := svc.Get(ctx, tag.ID, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign get, got %v", err)
	}
	name := "renamed"
	if _, err := svc.Update(ctx, tag.ID, 2, TagUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	if err := svc.Delete(ctx, tag.ID, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}

	got, err := svc.Get(ctx, tag.ID, 1)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Name != "secret" {
		t.Fatalf("unexpected tag %+v", got)
	}
}

func TestTagUpdatePartial(t *testing.T) {
	svc, _, _ := newTagServiceForTest()
	ctx := context.Background()

	tag, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "old", Color: "#111111"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "new"
	updated, err := svc.Update(ctx, tag.ID, 1, TagUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new" {
		t.Fatalf("expected renamed tag, got %q", updated.Name)
	}
	if updated.Color != "#111111" {
		t.Fatalf("unset color must stay, got %q", updated.Color)
	}
}

func TestNotesByTag(t *testing.T) {
	svc, _, notes := newTagServiceForTest()
	ctx := context.Background()

	tag, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "project"})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	tagged, _ := notes.Create(ctx, types.Note{UserID: 1, Title: "tagged", Content: "x", Tags: []int{tag.ID}})
	notes.Create(ctx, types.Note{UserID: 1, Title: "untagged", Content: "x"})
	notes.Create(ctx, types.Note{UserID: 2, Title: "foreign", Content: "x", Tags: []int{tag.ID}})
	binned, _ := notes.Create(ctx, types.Note{UserID: 1, Title: "binned", Content: "x", Tags: []int{tag.ID}})
	binned.Trashed = true
	notes.Update(ctx, binned)

	got, err := svc.NotesByTag(ctx, tag.ID, 1)
	if err != nil {
		t.Fatalf("notes by tag: %v", err)
	}
	if len(got) != 1 || got[0].ID != tagged.ID {
		t.Fatalf("expected only the owner's active tagged note, got %+v", got)
	}

	if _, err := svc.NotesByTag(ctx, tag.ID, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a foreign tag, got %v", err)
	}
}

func TestTagDeleteLeavesNoteReferences(t *testing.T) {
	svc, _, notes := newTagServiceForTest()
	ctx := context.Background()

	tag, err := svc.Create(ctx, types.Tag{UserID: 1, Name: "doomed"})
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	note, _ := notes.Create(ctx, types.Note{UserID: 1, Title: "holder", Content: "x", Tags: []int{tag.ID}})

	if err := svc.Delete(ctx, tag.ID, 1); err != nil {
		t.Fatalf("delete tag: %v", err)
	}

	// The note keeps the dangling id; there is no cleanup pass.
	held, err := notes.Get(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if len(held.Tags) != 1 || held.Tags[0] != tag.ID {
		t.Fatalf("expected the dangling tag id to stay, got %v", held.Tags)
	}
}

func TestTagSearchAndCount(t *testing.T) {
	svc, _, _ := newTagServiceForTest()
	ctx := context.Background()

	svc.Create(ctx, types.Tag{UserID: 1, Name: "Work"})
	svc.Create(ctx, types.Tag{UserID: 1, Name: "workout"})
	svc.Create(ctx, types.Tag{UserID: 1, Name: "home"})
	svc.Create(ctx, types.Tag{UserID: 2, Name: "work"})

	got, err := svc.List(ctx, store.TagFilter{UserID: 1, Keyword: "work"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 case-insensitive matches, got %d", len(got))
	}

	count, err := svc.Count(ctx, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}
