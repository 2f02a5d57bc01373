package submissions

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Sanitize turns free text into plain text safe to store and render: control
// characters and markup are removed, entities are decoded, stray angle
// brackets dropped and surrounding whitespace trimmed. Sanitize is pure and
// idempotent: the decode loop runs to a fixed point, so a second pass finds
// nothing left to change.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = textContent(stripControl(s))
	for {
		next := strings.TrimSpace(stripControl(stripAngles(html.UnescapeString(s))))
		if next == s {
			return s
		}
		s = next
	}
}

// textContent keeps the text tokens of s, dropping tags, comments and the
// bodies of script and style elements.
func textContent(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the text so far is all
			// there is.
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name string) bool {
	switch name {
	case "script", "style", "iframe", "noscript", "textarea", "title", "xmp", "noembed", "noframes":
		return true
	}
	return false
}

func stripAngles(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, s)
}

// stripControl removes control characters except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\uFFFD' {
			return -1
		}
		return r
	}, s)
}

func (p *ContactPayload) sanitize() {
	p.Name = Sanitize(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Subject = Sanitize(p.Subject)
	p.Message = Sanitize(p.Message)
}

func (p *EnrollmentPayload) sanitize() {
	p.ParentName = Sanitize(p.ParentName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Zip = strings.TrimSpace(p.Zip)
	p.ChildName = Sanitize(p.ChildName)
	p.ChildBirthDate = strings.TrimSpace(p.ChildBirthDate)
	p.Program = strings.TrimSpace(p.Program)
	p.StartDate = strings.TrimSpace(p.StartDate)
	p.Schedule = Sanitize(p.Schedule)
	p.Notes = Sanitize(p.Notes)
}
