package validator

import "finguard/internal/domain"

// Registry maps category ids to Validator implementations.
type Registry struct {
	validators map[string]Validator
}

// NewRegistry creates a Registry holding the given validators.
func NewRegistry(vs ...Validator) *Registry {
	r := &Registry{validators: make(map[string]Validator, len(vs))}
	for _, v := range vs {
		r.Register(v)
	}
	return r
}

// Register adds a validator, replacing any previous one for the same category.
func (r *Registry) Register(v Validator) {
	r.validators[v.Category()] = v
}

// Get returns the validator for a category, or nil if not found.
func (r *Registry) Get(category string) Validator {
	return r.validators[category]
}

// Len returns the number of registered categories.
func (r *Registry) Len() int { return len(r.validators) }

// All returns the registered validators in category display order, followed
// by any categories outside the standard set.
func (r *Registry) All() []Validator {
	out := make([]Validator, 0, len(r.validators))
	seen := make(map[string]bool, len(r.validators))
	for _, id := range domain.CategoryOrder {
		if v, ok := r.validators[id]; ok {
			out = append(out, v)
			seen[id] = true
		}
	}
	for id, v := range r.validators {
		if !seen[id] {
			out = append(out, v)
		}
	}
	return out
}
