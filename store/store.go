package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogkit/comments/models"
	"github.com/blogkit/comments/utils"
)

// Field length caps, matching what the service has always persisted.
const (
	maxPostIDLen = 100
	maxAuthorLen = 100
	maxEmailLen  = 100
	maxURLLen    = 200
	maxBodyLen   = 5000
)

// Store holds every comment for every post, backed by a single JSON file of
// shape {"<post_id>": [comment, ...], ...}. One Store owns one file; all
// mutations run under an exclusive lock and commit through an atomic rename,
// so readers and crash recovery never see a half-written document.
type Store struct {
	path            string
	approvedDefault bool

	mu   sync.RWMutex
	data map[string][]models.Comment
}

// CreateInput carries the client-supplied fields of a new comment.
type CreateInput struct {
	PostID    string
	Author    string
	AuthorURL string
	Email     string
	Body      string
	ParentID  string
}

// Open loads the backing file and returns a ready store. A missing file is an
// empty store; an unreadable or syntactically invalid file is a StorageError.
func Open(path string, approvedDefault bool) (*Store, error) {
	s := &Store{
		path:            path,
		approvedDefault: approvedDefault,
		data:            map[string][]models.Comment{},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &StorageError{Op: "read", Err: err}
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, &StorageError{Op: "decode", Err: err}
	}
	return s, nil
}

// ApprovedDefault reports the moderation default this store was opened with.
func (s *Store) ApprovedDefault() bool {
	return s.approvedDefault
}

// Create validates, escapes, and appends a comment for in.PostID, persisting
// the whole store before returning. The returned comment is the stored record.
// Validation failures return a *ValidationError and leave the store untouched;
// persistence failures return a *StorageError and roll back the append.
func (s *Store) Create(in CreateInput) (models.Comment, error) {
	postID := strings.TrimSpace(in.PostID)
	// StripTags both drops markup and entity-encodes the remaining text, so
	// it is the single escape on the author path.
	author := strings.TrimSpace(utils.StripTags(truncate(strings.TrimSpace(in.Author), maxAuthorLen)))
	body := strings.TrimSpace(in.Body)

	if postID == "" {
		return models.Comment{}, &ValidationError{Field: "post_id", Reason: "must not be empty"}
	}
	if author == "" {
		return models.Comment{}, &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if body == "" {
		return models.Comment{}, &ValidationError{Field: "body", Reason: "must not be empty"}
	}

	c := models.Comment{
		PostID:    truncate(postID, maxPostIDLen),
		Author:    author,
		AuthorURL: utils.EscapeText(truncate(strings.TrimSpace(in.AuthorURL), maxURLLen)),
		Email:     truncate(strings.TrimSpace(in.Email), maxEmailLen),
		Body:      utils.EscapeText(truncate(body, maxBodyLen)),
		ParentID:  strings.TrimSpace(in.ParentID),
		Approved:  s.approvedDefault,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.newIDLocked()
	c.CreatedAt = time.Now().UTC()

	prev := s.data[c.PostID]
	s.data[c.PostID] = append(prev, c)
	if err := s.persistLocked(); err != nil {
		s.data[c.PostID] = prev
		return models.Comment{}, err
	}
	return c, nil
}

// List returns the approved comments for postID in creation order. Unknown
// post ids yield an empty slice, never an error.
func (s *Store) List(postID string) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Comment{}
	for _, c := range s.data[postID] {
		if c.Approved {
			out = append(out, c)
		}
	}
	return out
}

// ListAll returns every stored comment across all posts in creation order per
// post. Intended for the moderation view.
func (s *Store) ListAll() []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(func(models.Comment) bool { return true })
}

// ListPending returns every comment still awaiting approval.
func (s *Store) ListPending() []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(func(c models.Comment) bool { return !c.Approved })
}

// Approve marks the comment visible and persists. Returns the updated record,
// or ErrNotFound.
func (s *Store) Approve(id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID, idx, ok := s.findLocked(id)
	if !ok {
		return models.Comment{}, ErrNotFound
	}

	prev := s.data[postID][idx].Approved
	s.data[postID][idx].Approved = true
	if err := s.persistLocked(); err != nil {
		s.data[postID][idx].Approved = prev
		return models.Comment{}, err
	}
	return s.data[postID][idx], nil
}

// Delete removes the comment and persists. Returns ErrNotFound for unknown ids.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID, idx, ok := s.findLocked(id)
	if !ok {
		return ErrNotFound
	}

	prev := s.data[postID]
	next := make([]models.Comment, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	if len(next) == 0 {
		delete(s.data, postID)
	} else {
		s.data[postID] = next
	}
	if err := s.persistLocked(); err != nil {
		s.data[postID] = prev
		return err
	}
	return nil
}

// Len returns the total number of stored comments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, list := range s.data {
		n += len(list)
	}
	return n
}

// persistLocked writes the full store to a temporary file in the same
// directory, fsyncs it, and renames it over the backing file. The rename is
// the commit point; an interrupted write leaves the previous file untouched.
// Callers must hold the write lock.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".comments-*.json")
	if err != nil {
		return &StorageError{Op: "create temp", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "close", Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "rename", Err: err}
	}
	return nil
}

// newIDLocked returns a short uuid not already present in the store.
func (s *Store) newIDLocked() string {
	for {
		id := uuid.NewString()[:8]
		if _, _, ok := s.findLocked(id); !ok {
			return id
		}
	}
}

func (s *Store) findLocked(id string) (postID string, idx int, ok bool) {
	for pid, list := range s.data {
		for i, c := range list {
			if c.ID == id {
				return pid, i, true
			}
		}
	}
	return "", 0, false
}

func (s *Store) collectLocked(keep func(models.Comment) bool) []models.Comment {
	out := []models.Comment{}
	for _, list := range s.data {
		for _, c := range list {
			if keep(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
