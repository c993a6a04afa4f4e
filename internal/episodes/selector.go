package episodes

import "sync"

// Ticket identifies one movie selection
type Ticket struct {
	movieID    string
	generation uint64
}

// MovieID returns the movie the ticket was issued for
func (t Ticket) MovieID() string {
	return t.movieID
}

// Selector tracks the active movie selection with a generation counter so
// that results of an abandoned selection can be discarded
type Selector struct {
	mu         sync.Mutex
	generation uint64
	movieID    string
}

// Select makes movieID the active selection and invalidates earlier tickets
func (s *Selector) Select(movieID string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.movieID = movieID
	return Ticket{movieID: movieID, generation: s.generation}
}

// Current returns the active movie ID
func (s *Selector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movieID
}

// IsCurrent reports whether no selection was made after the ticket was issued
func (s *Selector) IsCurrent(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.generation == s.generation
}

// Apply runs apply only if the ticket is still current and reports whether
// it ran. apply executes under the selector lock, so no newer selection can
// slip in between the check and the update.
func (s *Selector) Apply(t Ticket, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.generation != s.generation {
		return false
	}
	apply()
	return true
}
