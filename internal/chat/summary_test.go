package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/models"
)

func TestSummaryOfTextTruncates(t *testing.T) {
	long := strings.Repeat("a", 200)
	m := models.Message{Kind: "text", Text: long, CreatedAt: time.Now()}

	s := SummaryOf(m)

	if s.Kind != KindText {
		t.Fatalf("kind = %q, want text", s.Kind)
	}
	if want := strings.Repeat("a", previewLimit) + "..."; s.Preview != want {
		t.Fatalf("preview = %q, want %q", s.Preview, want)
	}
	if !s.Timestamp.Equal(m.CreatedAt) {
		t.Fatalf("timestamp = %v, want %v", s.Timestamp, m.CreatedAt)
	}
}

func TestSummaryOfShortTextUnchanged(t *testing.T) {
	s := SummaryOf(models.Message{Kind: "text", Text: "hi"})
	if s.Preview != "hi" {
		t.Fatalf("preview = %q", s.Preview)
	}
}

func TestSummaryOfMediaMarkers(t *testing.T) {
	cases := map[string]string{
		"image": "[image]",
		"video": "[video]",
		"audio": "[voice note]",
	}
	for kind, want := range cases {
		s := SummaryOf(models.Message{Kind: kind, MediaRef: "blob://x"})
		if s.Preview != want {
			t.Fatalf("kind %s: preview = %q, want %q", kind, s.Preview, want)
		}
		if s.Kind != Kind(kind) {
			t.Fatalf("kind %s: got %q", kind, s.Kind)
		}
	}
}

func TestTruncateMultibyte(t *testing.T) {
	in := strings.Repeat("日", previewLimit+1)
	out := truncate(in, previewLimit)
	if !strings.HasSuffix(out, "...") {
		t.Fatalf("missing ellipsis: %q", out)
	}
	if got := len([]rune(out)); got != previewLimit+3 {
		t.Fatalf("rune count = %d", got)
	}
}
