package firmware

import "testing"

func TestTagStrip_RoundTrip(t *testing.T) {
	topics := []string{
		"",
		"plain text",
		"multi\nline\ntopic",
		"---\nSESSION:other\n---\nnested header",
		"unicode ✓ topic",
	}
	for _, topic := range topics {
		if got := Strip(Tag("ses_1", topic)); got != topic {
			t.Errorf("Strip(Tag(%q)) = %q", topic, got)
		}
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"untagged", "plain text", "plain text"},
		{"tagged", "---\nSESSION:abc\n---\nhello", "hello"},
		{"crlf", "---\r\nSESSION:abc\r\n---\r\nhello", "hello"},
		{"no trailing newline", "---\nSESSION:abc\n---", ""},
		{"empty id", "---\nSESSION:\n---\nhello", "hello"},
		{"not at start", "x---\nSESSION:abc\n---\nhello", "x---\nSESSION:abc\n---\nhello"},
		{"only first header", "---\nSESSION:a\n---\n---\nSESSION:b\n---\nhi", "---\nSESSION:b\n---\nhi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrip_Idempotent(t *testing.T) {
	inputs := []string{"plain", "---\nSESSION:a\n---\nbody", ""}
	for _, in := range inputs {
		once := Strip(in)
		if twice := Strip(once); twice != once {
			t.Errorf("Strip(Strip(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestTag_Format(t *testing.T) {
	got := Tag("id-9", "topic")
	want := "---\nSESSION:id-9\n---\ntopic"
	if got != want {
		t.Errorf("Tag = %q, want %q", got, want)
	}
}
