package entropy

// Scripted replays a fixed sequence of floats, then repeats the last value.
// Intended for tests that need to force a specific branch (a guaranteed
// success roll, a guaranteed miss).
type Scripted struct {
	Values []float64
	idx    int
}

func (s *Scripted) Float() float64 {
	if len(s.Values) == 0 {
		return 0.5
	}
	v := s.Values[s.idx]
	if s.idx < len(s.Values)-1 {
		s.idx++
	}
	return v
}
