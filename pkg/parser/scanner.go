package parser

// scanner finds the first balanced JSON object in text fed to it piecewise.
// Text before the first '{' is discarded. Braces inside strings are ignored.
type scanner struct {
	buf      []byte
	started  bool
	depth    int
	inString bool
	escaped  bool
	done     bool
	end      int
}

// feed appends chunk and reports whether a complete object is now available.
func (s *scanner) feed(chunk string) bool {
	if s.done {
		return true
	}
	for i := 0; i < len(chunk); i++ {
		c := chunk[i]
		if !s.started {
			if c != '{' {
				continue
			}
			s.started = true
		}
		s.buf = append(s.buf, c)

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			continue
		}

		switch c {
		case '"':
			s.inString = true
		case '{', '[':
			s.depth++
		case '}', ']':
			s.depth--
			if s.depth == 0 {
				s.done = true
				s.end = len(s.buf)
				return true
			}
		}
	}
	return false
}

// object returns the completed object bytes.
func (s *scanner) object() []byte {
	return s.buf[:s.end]
}

// size is the number of bytes retained so far.
func (s *scanner) size() int {
	return len(s.buf)
}
