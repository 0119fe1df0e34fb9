package b2g

import "sync/atomic"

type Credentials struct {
	Username string
	Password string
}

// credentialStore is a copy-on-write cell: readers always get a complete
// pair, writers replace the whole value.
type credentialStore struct {
	v atomic.Pointer[Credentials]
}

func (s *credentialStore) Load() Credentials {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return Credentials{}
}

func (s *credentialStore) Store(c Credentials) {
	s.v.Store(&c)
}
