package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/notable-app/apiserver/internal/notify"
	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
)

// In-memory repositories mirroring the Postgres ones closely enough
// for routing and policy tests.

type memSender struct {
	sent []notify.Notification
}

func (s *memSender) Send(_ context.Context, n notify.Notification) error {
	s.sent = append(s.sent, n)
	return nil
}

func (s *memSender) lastOfKind(kind notify.Kind) (notify.Notification, bool) {
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].Kind == kind {
			return s.sent[i], true
		}
	}
	return notify.Notification{}, false
}

type memUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int]types.User{}, nextID: 1}
}

func copyUser(u types.User) types.User {
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

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (r *memUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memUserRepo) Search(_ context.Context, keyword string) ([]types.User, error) {
	keyword = strings.ToLower(keyword)
	var users []types.User
	for _, user := range r.users {
		if strings.Contains(strings.ToLower(user.Email), keyword) ||
			strings.Contains(strings.ToLower(user.Name), keyword) {
			users = append(users, copyUser(user))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type memNoteRepo struct {
	notes  map[int]types.Note
	nextID int
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: map[int]types.Note{}, nextID: 1}
}

func copyNote(n types.Note) types.Note {
	n.Tags = append([]int(nil), n.Tags...)
	if n.Tags == nil {
		n.Tags = []int{}
	}
	return n
}

func (r *memNoteRepo) Get(_ context.Context, id int) (types.Note, error) {
	note, ok := r.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return copyNote(note), nil
}

func (r *memNoteRepo) Create(_ context.Context, note types.Note) (types.Note, error) {
	note.ID = r.nextID
	r.nextID++
	r.notes[note.ID] = copyNote(note)
	return copyNote(note), nil
}

func (r *memNoteRepo) Update(_ context.Context, note types.Note) (types.Note, error) {
	if _, ok := r.notes[note.ID]; !ok {
		return types.Note{}, store.ErrNotFound
	}
	r.notes[note.ID] = copyNote(note)
	return copyNote(note), nil
}

func (r *memNoteRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *memNoteRepo) DeleteAll(_ context.Context) error {
	r.notes = map[int]types.Note{}
	return nil
}

func (r *memNoteRepo) List(_ context.Context, filter store.NoteFilter) ([]types.Note, error) {
	notes := []types.Note{}
	for _, note := range r.notes {
		if note.UserID != filter.UserID || note.Trashed != filter.Trashed {
			continue
		}
		if filter.TagID != nil && !hasTag(note.Tags, *filter.TagID) {
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
		notes = append(notes, copyNote(note))
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *memNoteRepo) ListActive(_ context.Context) ([]types.Note, error) {
	notes := []types.Note{}
	for _, note := range r.notes {
		if !note.Trashed {
			notes = append(notes, copyNote(note))
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

func (r *memNoteRepo) CountByUser(_ context.Context, userID int) (total, trashed int, err error) {
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

func hasTag(tags []int, id int) bool {
	for _, tag := range tags {
		if tag == id {
			return true
		}
	}
	return false
}

type memTagRepo struct {
	tags   map[int]types.Tag
	nextID int
}

func newMemTagRepo() *memTagRepo {
	return &memTagRepo{tags: map[int]types.Tag{}, nextID: 1}
}

func (r *memTagRepo) GetOwned(_ context.Context, id, userID int) (types.Tag, error) {
	tag, ok := r.tags[id]
	if !ok || tag.UserID != userID {
		return types.Tag{}, store.ErrNotFound
	}
	return tag, nil
}

func (r *memTagRepo) Create(_ context.Context, tag types.Tag) (types.Tag, error) {
	tag.ID = r.nextID
	r.nextID++
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *memTagRepo) UpdateOwned(_ context.Context, tag types.Tag) (types.Tag, error) {
	existing, ok := r.tags[tag.ID]
	if !ok || existing.UserID != tag.UserID {
		return types.Tag{}, store.ErrNotFound
	}
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *memTagRepo) DeleteOwned(_ context.Context, id, userID int) error {
	tag, ok := r.tags[id]
	if !ok || tag.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

func (r *memTagRepo) List(_ context.Context, filter store.TagFilter) ([]types.Tag, error) {
	tags := []types.Tag{}
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

func (r *memTagRepo) CountOwned(_ context.Context, ids []int, userID int) (int, error) {
	count := 0
	for _, id := range ids {
		if tag, ok := r.tags[id]; ok && tag.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memTagRepo) CountByUser(_ context.Context, userID int) (int, error) {
	count := 0
	for _, tag := range r.tags {
		if tag.UserID == userID {
			count++
		}
	}
	return count, nil
}
