package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLatinOnly(t *testing.T) {
	assert.Equal(t, "English", Detect("My account is locked"))
}

func TestDetectDevanagari(t *testing.T) {
	assert.Equal(t, "Hindi", Detect("खाता बैलेंस"))
}

func TestDetectMixedTextPrefersEnglish(t *testing.T) {
	// Latin is checked first, so mixed text containing any Latin letter
	// stays English regardless of other scripts present
	assert.Equal(t, "English", Detect("balance खाता"))
	assert.Equal(t, "English", Detect("खाता balance"))
}

func TestDetectOtherScripts(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"tamil", "என் கணக்கு", "Tamil"},
		{"telugu", "నా ఖాతా", "Telugu"},
		{"bengali", "আমার অ্যাকাউন্ট", "Bengali"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetectEmptyText(t *testing.T) {
	assert.Equal(t, "English", Detect(""))
}

func TestDetectUnknownScriptFallsBack(t *testing.T) {
	// Digits and punctuation match no script range
	assert.Equal(t, "Regional Indian", Detect("12345 !?"))
}
