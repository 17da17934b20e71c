// Package domain contains core concepts of the chat system.
// This file defines chat messages and the history they are merged into.
// Messages are immutable once created.
package domain

import (
	"strings"
	"time"

	"lan-chat/errors"
)

// ChatMessage is one line of conversation. SentAt is the sender's wall clock
// as HH:MM:SS; it is part of the message identity, not a precise instant.
type ChatMessage struct {
	SenderName string
	Text       string
	SentAt     string
}

// NewChatMessage stamps text with the sender and the time of day of at.
func NewChatMessage(sender, text string, at time.Time) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, errors.ErrEmptyMessage
	}
	return ChatMessage{
		SenderName: sender,
		Text:       text,
		SentAt:     at.Format(time.TimeOnly),
	}, nil
}

// History is the ordered, append-only list of messages shown for a room.
// It is not safe for concurrent use; the session controller guards it.
type History struct {
	messages []ChatMessage
	seen     map[ChatMessage]struct{}
}

func NewHistory() *History {
	return &History{seen: make(map[ChatMessage]struct{})}
}

// Append stores msg unless an identical (sender, text, time) triple is
// already present. It reports whether msg was new.
func (h *History) Append(msg ChatMessage) bool {
	if h.Contains(msg) {
		return false
	}
	h.seen[msg] = struct{}{}
	h.messages = append(h.messages, msg)
	return true
}

func (h *History) Contains(msg ChatMessage) bool {
	_, ok := h.seen[msg]
	return ok
}

// Snapshot returns a copy of the messages, oldest first.
func (h *History) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int { return len(h.messages) }

func (h *History) Reset() {
	h.messages = nil
	h.seen = make(map[ChatMessage]struct{})
}
