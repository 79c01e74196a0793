package chat

import (
	"time"
	"unicode/utf8"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/models"
)

// Kind discriminates what a message (and its sidebar preview) carries.
type Kind string

const (
	KindNone  Kind = "none"
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// ValidKind reports whether k names a sendable message kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio:
		return true
	}
	return false
}

// Summary is the condensed preview of a contact's most recent message.
// A summary may only be replaced by one with an equal-or-later timestamp.
type Summary struct {
	Kind      Kind      `json:"kind"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
}

// Contact is one sidebar entry. Online is merged in from the presence
// provider at fetch time and never persisted.
type Contact struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	Online    bool    `json:"online"`
	Summary   Summary `json:"last_activity"`
}

const previewLimit = 80

// SummaryOf derives the sidebar preview from a stored message.
func SummaryOf(m models.Message) Summary {
	s := Summary{Kind: Kind(m.Kind), Timestamp: m.CreatedAt}
	switch s.Kind {
	case KindImage:
		s.Preview = "[image]"
	case KindVideo:
		s.Preview = "[video]"
	case KindAudio:
		s.Preview = "[voice note]"
	default:
		s.Kind = KindText
		s.Preview = truncate(m.Text, previewLimit)
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
