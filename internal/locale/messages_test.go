package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslationsComplete(t *testing.T) {
	for key := range translations[English] {
		for _, code := range Supported() {
			if _, ok := translations[code][key]; !ok {
				t.Errorf("locale %s is missing %s", code, key)
			}
		}
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Programas", Message(Spanish, PagePrograms))
	assert.Equal(t, "Про нас", Message(Ukrainian, PageAbout))
	assert.Equal(t, translations[English][PageHome], Message("fr", PageHome))
	assert.Equal(t, translations[English][PageHome], Message("", PageHome))
	assert.Equal(t, "no.such.key", Message(Polish, "no.such.key"))
}
