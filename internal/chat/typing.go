package chat

// TypingSet tracks the usernames currently composing a message. Membership is
// keyed by username, so connections sharing a name share one entry.
type TypingSet struct {
	members map[string]struct{}
	order   []string
}

// NewTypingSet returns an empty set.
func NewTypingSet() *TypingSet {
	return &TypingSet{members: make(map[string]struct{})}
}

// Start marks username as typing. Repeated calls are no-ops.
func (s *TypingSet) Start(username string) {
	if _, ok := s.members[username]; ok {
		return
	}
	s.members[username] = struct{}{}
	s.order = append(s.order, username)
}

// Stop clears username. Stopping an absent name is a no-op.
func (s *TypingSet) Stop(username string) {
	if _, ok := s.members[username]; !ok {
		return
	}
	delete(s.members, username)
	for i, name := range s.order {
		if name == username {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether username is typing.
func (s *TypingSet) Contains(username string) bool {
	_, ok := s.members[username]
	return ok
}

// List returns the typing usernames in the order they started.
func (s *TypingSet) List() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}
