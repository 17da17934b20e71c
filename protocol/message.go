// Package protocol defines the two wire messages exchanged on the LAN:
// presence datagrams on the discovery port and chat frames on the relay stream.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"lan-chat/domain"
	"lan-chat/errors"

	"github.com/go-playground/validator/v10"
)

type Kind string

const (
	KindPresence Kind = "presence"
	KindChat     Kind = "chat"
)

// Message is the tagged union of wire messages: either *Presence or *Chat.
type Message interface {
	Kind() Kind
}

// Presence is the discovery datagram. Timestamp is unix seconds.
type Presence struct {
	Type      Kind    `json:"type" validate:"eq=presence"`
	ChatID    string  `json:"chat_id" validate:"roomid"`
	Username  string  `json:"username" validate:"required,max=64"`
	IP        string  `json:"ip" validate:"omitempty,ip"`
	Timestamp float64 `json:"timestamp" validate:"gte=0"`
}

func (*Presence) Kind() Kind { return KindPresence }

// Chat is one relayed chat line. Timestamp is the sender's HH:MM:SS.
type Chat struct {
	Type      Kind   `json:"type" validate:"eq=chat"`
	Username  string `json:"username" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp string `json:"timestamp" validate:"required,datetime=15:04:05"`
}

func (*Chat) Kind() Kind { return KindChat }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("roomid", func(fl validator.FieldLevel) bool {
		return domain.IsValidRoomID(fl.Field().String())
	})
	return v
}

type envelope struct {
	Type Kind `json:"type"`
}

// Decode parses and validates a single wire message.
// Any error wraps errors.ErrMalformedPayload or errors.ErrUnknownMessageType.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}

	var msg Message
	switch env.Type {
	case KindPresence:
		msg = &Presence{}
	case KindChat:
		msg = &Chat{}
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownMessageType, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	return msg, nil
}

// DecodeChat is Decode restricted to chat messages.
func DecodeChat(data []byte) (domain.ChatMessage, error) {
	msg, err := Decode(data)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	chat, ok := msg.(*Chat)
	if !ok {
		return domain.ChatMessage{}, fmt.Errorf("%w: expected chat, got %s", errors.ErrUnknownMessageType, msg.Kind())
	}
	return chat.ToDomain(), nil
}

// DecodePresence is Decode restricted to presence announcements.
func DecodePresence(data []byte) (domain.PresenceAnnouncement, error) {
	msg, err := Decode(data)
	if err != nil {
		return domain.PresenceAnnouncement{}, err
	}
	presence, ok := msg.(*Presence)
	if !ok {
		return domain.PresenceAnnouncement{}, fmt.Errorf("%w: expected presence, got %s", errors.ErrUnknownMessageType, msg.Kind())
	}
	return presence.ToDomain(), nil
}

func EncodeChat(msg domain.ChatMessage) ([]byte, error) {
	return json.Marshal(FromChatMessage(msg))
}

func EncodePresence(a domain.PresenceAnnouncement) ([]byte, error) {
	return json.Marshal(FromAnnouncement(a))
}

func FromChatMessage(msg domain.ChatMessage) Chat {
	return Chat{
		Type:      KindChat,
		Username:  msg.SenderName,
		Text:      msg.Text,
		Timestamp: msg.SentAt,
	}
}

func (c *Chat) ToDomain() domain.ChatMessage {
	return domain.ChatMessage{
		SenderName: c.Username,
		Text:       c.Text,
		SentAt:     c.Timestamp,
	}
}

func FromAnnouncement(a domain.PresenceAnnouncement) Presence {
	return Presence{
		Type:      KindPresence,
		ChatID:    a.RoomID.String(),
		Username:  a.DisplayName,
		IP:        a.Address,
		Timestamp: float64(a.SentAt.UnixNano()) / float64(time.Second),
	}
}

func (p *Presence) ToDomain() domain.PresenceAnnouncement {
	sec, frac := math.Modf(p.Timestamp)
	return domain.PresenceAnnouncement{
		RoomID:      domain.RoomID(p.ChatID),
		DisplayName: p.Username,
		Address:     p.IP,
		SentAt:      time.Unix(int64(sec), int64(frac*float64(time.Second))),
	}
}
