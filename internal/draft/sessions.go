package draft

import (
	"github.com/google/uuid"

	"github.com/inkwellapp/inkwell/internal/cache"
)

// Sessions maps editor session ids (carried in a cookie) to their
// controllers. Each browser tab editing a post gets its own controller;
// nothing else may touch a session's draft.
type Sessions struct {
	controllers *cache.Cache[string, *Controller]
}

func NewSessions() *Sessions {
	return &Sessions{
		controllers: cache.NewCache[string, *Controller](),
	}
}

// Create registers a controller and returns its new session id.
func (s *Sessions) Create(ctl *Controller) string {
	id := uuid.New().String()
	s.controllers.Set(id, ctl)
	return id
}

func (s *Sessions) Get(id string) (*Controller, bool) {
	if id == "" {
		return nil, false
	}
	return s.controllers.Get(id)
}

// Drop discards the session's draft and forgets the controller.
func (s *Sessions) Drop(id string) {
	if ctl, ok := s.controllers.Get(id); ok {
		ctl.Discard()
	}
	s.controllers.Delete(id)
}
