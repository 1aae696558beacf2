package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/notable-app/apiserver/internal/notify"
	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

type fakeSender struct {
	sent []notify.Notification
}

func (s *fakeSender) Send(_ context.Context, n notify.Notification) error {
	s.sent = append(s.sent, n)
	return nil
}

func (s *fakeSender) last() notify.Notification {
	if len(s.sent) == 0 {
		return notify.Notification{}
	}
	return s.sent[len(s.sent)-1]
}

func (s *fakeSender) lastOfKind(kind notify.Kind) (notify.Notification, bool) {
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].Kind == kind {
			return s.sent[i], true
		}
	}
	return notify.Notification{}, false
}

func newTestNotifier() (*notify.Notifier, *fakeSender) {
	sender := &fakeSender{}
	logger := slog.New(slog.DiscardHandler)
	return notify.NewNotifier(sender, nil, "", logger), sender
}

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]types.User{}, nextID: 1}
}

// cloneUser detaches the OTP slots the way a database round-trip would.
func cloneUser(u types.User) types.User {
	if u.OTP != nil {
		cp := *u.OTP
		u.OTP = &cp
	}
	if u.EmailChangeOTP != nil {
		cp := *u.EmailChangeOTP
		u.EmailChangeOTP = &cp
	}
	return u
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for _, existing := range r.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) Search(_ context.Context, keyword string) ([]types.User, error) {
	keyword = strings.ToLower(keyword)
	var users []types.User
	for _, user := range r.users {
		if strings.Contains(strings.ToLower(user.Email), keyword) ||
			strings.Contains(strings.ToLower(user.Name), keyword) {
			users = append(users, cloneUser(user))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type fakeNoteRepo struct {
	notes  map[int]types.Note
	nextID int
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: map[int]types.Note{}, nextID: 1}
}

func cloneNote(n types.Note) types.Note {
	n.Tags = append([]int(nil), n.Tags...)
	if n.Tags == nil {
		n.Tags = []int{}
	}
	return n
}

func (r *fakeNoteRepo) Get(_ context.Context, id int) (types.Note, error) {
	note, ok := r.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return cloneNote(note), nil
}

func (r *fakeNoteRepo) Create(_ context.Context, note types.Note) (types.Note, error) {
	note.ID = r.nextID
	r.nextID++
	r.notes[note.ID] = cloneNote(note)
	return cloneNote(note), nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note types.Note) (types.Note, error) {
	if _, ok := r.notes[note.ID]; !ok {
		return types.Note{}, store.ErrNotFound
	}
	r.notes[note.ID] = cloneNote(note)
	return cloneNote(note), nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *fakeNoteRepo) DeleteAll(_ context.Context) error {
	r.notes = map[int]types.Note{}
	return nil
}

func (r *fakeNoteRepo) List(_ context.Context, filter store.NoteFilter) ([]types.Note, error) {
	var notes []types.Note
	for _, note := range r.notes {
		if note.UserID != filter.UserID || note.Trashed != filter.Trashed {
			continue
		}
		if filter.TagID != nil && !containsTag(note.Tags, *filter.TagID) {
			continue
		}
		if filter.Done != nil && note.Done != *filter.Done {
			continue
		}
		if filter.Keyword != "" {
			keyword := strings.ToLower(filter.Keyword)
			if !strings.Contains(strings.ToLower(note.Title), keyword) &&
				!strings.Contains(strings.ToLower(note.Content), keyword) {
				continue
			}
		}
		notes = append(notes, cloneNote(note))
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *fakeNoteRepo) ListActive(_ context.Context) ([]types.Note, error) {
	var notes []types.Note
	for _, note := range r.notes {
		if !note.Trashed {
			notes = append(notes, cloneNote(note))
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *fakeNoteRepo) CountByUser(_ context.Context, userID int) (total, trashed int, err error) {
	for _, note := range r.notes {
		if note.UserID != userID {
			continue
		}
		total++
		if note.Trashed {
			trashed++
		}
	}
	return total, trashed, nil
}

func containsTag(tags []int, id int) bool {
	for _, tag := range tags {
		if tag == id {
			return true
		}
	}
	return false
}

type fakeTagRepo struct {
	tags   map[int]types.Tag
	nextID int
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: map[int]types.Tag{}, nextID: 1}
}

func (r *fakeTagRepo) GetOwned(_ context.Context, id, userID int) (types.Tag, error) {
	tag, ok := r.tags[id]
	if !ok || tag.UserID != userID {
		return types.Tag{}, store.ErrNotFound
	}
	return tag, nil
}

func (r *fakeTagRepo) Create(_ context.Context, tag types.Tag) (types.Tag, error) {
	tag.ID = r.nextID
	r.nextID++
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *fakeTagRepo) UpdateOwned(_ context.Context, tag types.Tag) (types.Tag, error) {
	existing, ok := r.tags[tag.ID]
	if !ok || existing.UserID != tag.UserID {
		return types.Tag{}, store.ErrNotFound
	}
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *fakeTagRepo) DeleteOwned(_ context.Context, id, userID int) error {
	tag, ok := r.tags[id]
	if !ok || tag.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

func (r *fakeTagRepo) List(_ context.Context, filter store.TagFilter) ([]types.Tag, error) {
	var tags []types.Tag
	for _, tag := range r.tags {
		if tag.UserID != filter.UserID {
			continue
		}
		if filter.Keyword != "" &&
			!strings.Contains(strings.ToLower(tag.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (r *fakeTagRepo) CountOwned(_ context.Context, ids []int, userID int) (int, error) {
	count := 0
	for _, id := range ids {
		if tag, ok := r.tags[id]; ok && tag.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTagRepo) CountByUser(_ context.Context, userID int) (int, error) {
	count := 0
	for _, tag := range r.tags {
		if tag.UserID == userID {
			count++
		}
	}
	return count, nil
}
