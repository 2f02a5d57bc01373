package submissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Maria Lopez  ", "Maria Lopez"},
		{"<b>Bold</b> move", "Bold move"},
		{"<script>alert('x')</script>Hello", "Hello"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"a &lt;script&gt; b", "a script b"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
		{"nul\x00byte\x07", "nulbyte"},
		{"1 < 2 and 3 > 2", "1  2 and 3  2"},
		{"Zoë Ñúñez", "Zoë Ñúñez"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"  padded  ",
		"<img src=x onerror=alert(1)>",
		"<scr<script>ipt>alert(1)</script>",
		"&amp;lt;script&amp;gt;",
		"&am<p;lt;b&gt;",
		"&#60;iframe&#62;",
		"Robert'); DROP TABLE submissions;--",
		"<style>body{}</style>text",
		"\x1b[31mred\x1b[0m",
		" non-breaking ",
		"<<>>",
		"&",
		"привіт <i>світ</i>",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "sanitize not idempotent for %q", in)
		assert.NotContains(t, once, "<")
		assert.NotContains(t, once, ">")
	}
}

func TestPayloadSanitizeLeavesStructuredFields(t *testing.T) {
	p := &EnrollmentPayload{
		ParentName:     " <b>Maria</b> ",
		Email:          " maria@example.com ",
		ChildBirthDate: " 2024-04-10 ",
		Notes:          "Allergic to <em>peanuts</em>",
	}
	p.sanitize()
	assert.Equal(t, "Maria", p.ParentName)
	assert.Equal(t, "maria@example.com", p.Email)
	assert.Equal(t, "2024-04-10", p.ChildBirthDate)
	assert.Equal(t, "Allergic to peanuts", p.Notes)
}
