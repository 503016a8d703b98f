package conversation

import (
	"testing"

	"github.com/m3rciful/avatarbot/internal/session"
)

func TestPartition(t *testing.T) {
	choices := make([]Choice, 10)
	rows := partition(choices, 4)
	if len(rows) != 3 || len(rows[0]) != 4 || len(rows[2]) != 2 {
		t.Fatalf("unexpected layout: %d rows", len(rows))
	}
	if rows := partition(choices, 0); len(rows) != 10 {
		t.Fatalf("non-positive width must fall back to one per row, got %d rows", len(rows))
	}
}

func TestGreetingWithoutName(t *testing.T) {
	r := greetingReply("  ")
	if r.Text == "" || r.Format != FormatMarkdownV2 {
		t.Fatalf("unexpected greeting: %+v", r)
	}
}

func TestImageReplyUsesSessionSettings(t *testing.T) {
	s := session.New(1)
	s.ImageSize = 64
	s.ImageSeed = "fox"
	got := imageReply(s, "rings").Request
	if got != (RenderRequest{Style: "rings", Size: 64, Seed: "fox"}) {
		t.Fatalf("unexpected request: %+v", got)
	}
}
