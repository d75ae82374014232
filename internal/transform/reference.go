package transform

import "github.com/Veraticus/roster/internal/model"

// ReferenceData is the tenant data a transformation is checked against.
// It is fetched once before transformation starts and never modified.
type ReferenceData struct {
	branches    map[string]int64
	emails      map[string]bool
	phones      map[string]bool
	nationalIDs map[string]bool
}

// NewReferenceData indexes branches by name and existing employees by natural key.
func NewReferenceData(branches []model.Branch, existing []model.NaturalKey) *ReferenceData {
	ref := &ReferenceData{
		branches:    make(map[string]int64, len(branches)),
		emails:      make(map[string]bool, len(existing)),
		phones:      make(map[string]bool, len(existing)),
		nationalIDs: make(map[string]bool, len(existing)),
	}

	for _, b := range branches {
		ref.branches[model.NormalizeBranchName(b.Name)] = b.ID
	}
	for _, key := range existing {
		ref.add(key.Normalized())
	}
	return ref
}

// BranchID resolves a branch name, ignoring case and surrounding whitespace.
func (r *ReferenceData) BranchID(name string) (int64, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.branches[model.NormalizeBranchName(name)]
	return id, ok
}

// Match returns the first natural-key field of key that is already known.
func (r *ReferenceData) Match(key model.NaturalKey) (string, bool) {
	if r == nil {
		return "", false
	}
	n := key.Normalized()
	switch {
	case n.Email != "" && r.emails[n.Email]:
		return "email", true
	case n.Phone != "" && r.phones[n.Phone]:
		return "phone", true
	case n.NationalID != "" && r.nationalIDs[n.NationalID]:
		return "national ID", true
	}
	return "", false
}

func (r *ReferenceData) add(n model.NaturalKey) {
	if n.Email != "" {
		r.emails[n.Email] = true
	}
	if n.Phone != "" {
		r.phones[n.Phone] = true
	}
	if n.NationalID != "" {
		r.nationalIDs[n.NationalID] = true
	}
}
