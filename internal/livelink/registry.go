package livelink

// SubjectRegistry tracks which subject names have already had static data
// pushed during this listener's lifetime. The set only grows. It is not safe
// for concurrent use; all access must happen on the consumer goroutine.
type SubjectRegistry struct {
	seen map[string]struct{}
}

// NewSubjectRegistry creates an empty registry.
func NewSubjectRegistry() *SubjectRegistry {
	return &SubjectRegistry{seen: make(map[string]struct{})}
}

// Contains reports whether the subject has been recorded.
func (r *SubjectRegistry) Contains(name string) bool {
	_, ok := r.seen[name]
	return ok
}

// Insert records the subject. Inserting an existing name is a no-op.
func (r *SubjectRegistry) Insert(name string) {
	r.seen[name] = struct{}{}
}

// Len returns the number of recorded subjects.
func (r *SubjectRegistry) Len() int {
	return len(r.seen)
}
