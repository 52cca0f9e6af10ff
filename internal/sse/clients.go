// Package sse manages Server-Sent Events clients so open pages learn about
// upstream post changes.
package sse

import (
	"sync"

	"github.com/inkwellapp/inkwell/internal/model"
)

type Client struct {
	Msg    chan string
	PostID model.PostID
}

type Clients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewClients() *Clients {
	return &Clients{
		clients: make(map[*Client]bool),
	}
}

func (s *Clients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *Clients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	close(client.Msg)
}

// Broadcast delivers msg to every client watching the given post. Slow
// clients are skipped rather than blocking the broadcast.
func (s *Clients) Broadcast(postID model.PostID, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.PostID == postID {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}
