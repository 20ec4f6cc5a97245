package checkauth

// State is the tri-state outcome a checker reports. While Loading is true,
// UserInfo and Err still carry the previous cycle's outcome so consumers can
// keep rendering stale data; at rest exactly one of the two is meaningful.
type State struct {
	Loading  bool
	UserInfo *UserInfo
	Err      error
}

// Settled reports whether the checker is at rest.
func (s State) Settled() bool {
	return !s.Loading
}

// Authenticated reports whether the last completed check succeeded.
func (s State) Authenticated() bool {
	return s.UserInfo != nil && s.Err == nil
}
