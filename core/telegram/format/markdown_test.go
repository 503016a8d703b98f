package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	cases := map[string]string{
		"john_doe":     `john\_doe`,
		"a.b!":         `a\.b\!`,
		"plain":        "plain",
		"[x](y)":       `\[x\]\(y\)`,
		`back\slash`:   `back\\slash`,
		"pixel-art #1": `pixel\-art \#1`,
		"a,b/1:2;<":    "a,b/1:2;<",
	}
	for in, want := range cases {
		if got := EscapeMarkdownV2(in); got != want {
			t.Fatalf("EscapeMarkdownV2(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("a_b*c", MarkdownV1)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if got != `a\_b\*c` {
		t.Fatalf("unexpected output %q", got)
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
