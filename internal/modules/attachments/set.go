// Package attachments tracks a trade's screenshots while a form is open:
// what the server already has, what the user staged to upload and what the
// user marked for removal.
package attachments

// Set is the three-way attachment state of one form session.
//
// Invariant: every path in pendingDeletion is also in persisted, and a path
// is never both visible and pending deletion. Set is not safe for
// concurrent use; it belongs to a single form session.
type Set struct {
	policy    Policy
	persisted []string
	staged    []File

	// pending keeps marking order so the serialized list is stable
	pending    []string
	pendingIdx map[string]struct{}
}

// NewSet creates a set seeded with the trade's persisted paths (nil for a
// new trade). Duplicate and empty paths are dropped.
func NewSet(policy Policy, persisted []string) *Set {
	s := &Set{
		policy:     policy,
		pendingIdx: make(map[string]struct{}),
	}
	s.persisted = dedupe(persisted)
	return s
}

// Policy returns the validation policy used by Stage
func (s *Set) Policy() Policy {
	return s.policy
}

// Stage appends every valid file and reports the rejected ones.
// A rejected file never prevents the others from being staged.
func (s *Set) Stage(files ...File) []Rejection {
	var rejected []Rejection
	for _, f := range files {
		if r := s.policy.Check(f); r != nil {
			rejected = append(rejected, *r)
			continue
		}
		s.staged = append(s.staged, f)
	}
	return rejected
}

// Unstage removes the staged file at index; out of range is a no-op
func (s *Set) Unstage(index int) {
	if index < 0 || index >= len(s.staged) {
		return
	}
	s.staged = append(s.staged[:index:index], s.staged[index+1:]...)
}

// MarkForDeletion hides persisted paths and queues them for removal on the
// next successful submission. Unknown and already-marked paths are ignored.
func (s *Set) MarkForDeletion(paths ...string) {
	for _, p := range paths {
		if !s.IsPersisted(p) {
			continue
		}
		if _, marked := s.pendingIdx[p]; marked {
			continue
		}
		s.pendingIdx[p] = struct{}{}
		s.pending = append(s.pending, p)
	}
}

// Reset clears persisted, staged and pending deletion state
func (s *Set) Reset() {
	s.persisted = nil
	s.staged = nil
	s.pending = nil
	s.pendingIdx = make(map[string]struct{})
}

// VisiblePersisted returns persisted minus pending deletion, in original order
func (s *Set) VisiblePersisted() []string {
	visible := make([]string, 0, len(s.persisted))
	for _, p := range s.persisted {
		if _, marked := s.pendingIdx[p]; !marked {
			visible = append(visible, p)
		}
	}
	return visible
}

// Persisted returns every path the server holds for this trade
func (s *Set) Persisted() []string {
	return append([]string(nil), s.persisted...)
}

// PendingDeletion returns the marked paths in marking order (never nil)
func (s *Set) PendingDeletion() []string {
	return append(make([]string, 0, len(s.pending)), s.pending...)
}

// IsPendingDeletion reports whether path is marked for removal
func (s *Set) IsPendingDeletion(path string) bool {
	_, ok := s.pendingIdx[path]
	return ok
}

// IsPersisted reports whether the server holds path for this trade
func (s *Set) IsPersisted(path string) bool {
	for _, p := range s.persisted {
		if p == path {
			return true
		}
	}
	return false
}

// Staged returns the staged files in staging order
func (s *Set) Staged() []File {
	return append([]File(nil), s.staged...)
}

// Verify re-reads disk-backed staged files and checks them against the
// policy again. Files that went missing or no longer pass are reported;
// the rest are returned with their current size and media type.
func (s *Set) Verify() ([]File, []Rejection) {
	files := make([]File, 0, len(s.staged))
	var rejected []Rejection
	for _, f := range s.staged {
		if f.Path() != "" {
			fresh, err := FileFromPath(f.Path())
			if err != nil {
				rejected = append(rejected, Rejection{File: f.FileName(), Reason: ReasonMissing, Detail: err.Error()})
				continue
			}
			f = fresh
		}
		if r := s.policy.Check(f); r != nil {
			rejected = append(rejected, *r)
			continue
		}
		files = append(files, f)
	}
	return files, rejected
}

// StagedCount returns the number of staged files
func (s *Set) StagedCount() int {
	return len(s.staged)
}

// HasChanges reports whether submitting would change attachments
func (s *Set) HasChanges() bool {
	return len(s.staged) > 0 || len(s.pending) > 0
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
