package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rivalth/kumbara/internal/classify"
)

func TestExtractIBAN(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "Bare",
			text: "FAST TR330006100519786457841326 Ahmet Yılmaz",
			want: "TR330006100519786457841326",
		},
		{
			name: "Spaced",
			text: "Havale TR33 0006 1005 1978 6457 8413 26 kira",
			want: "TR330006100519786457841326",
		},
		{
			name: "Lowercase",
			text: "tr330006100519786457841326",
			want: "TR330006100519786457841326",
		},
		{
			name: "TooShort",
			text: "TR33000610051978645784132",
			want: "",
		},
		{
			name: "NoIBAN",
			text: "MIGROS TICARET A.S.",
			want: "",
		},
		{
			name: "Empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.ExtractIBAN(tt.text))
		})
	}
}

func TestFormatIBAN(t *testing.T) {
	got := classify.FormatIBAN("TR330006100519786457841326")
	assert.Equal(t, "TR33 0006 1005 1978 6457 8413 26", got)
}

func TestExtractIBAN_RoundTrip(t *testing.T) {
	inputs := []string{
		"TR330006100519786457841326",
		"tr33 0006 1005 1978 6457 8413 26",
		"EFT TR12 0001 0002 0003 0004 0005 06 açıklama",
	}

	for _, in := range inputs {
		normalized := classify.ExtractIBAN(in)
		assert.NotEmpty(t, normalized)
		assert.Equal(t, normalized, classify.ExtractIBAN(classify.FormatIBAN(normalized)))
	}
}

func TestEnhanceDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "BareIBANAnnotated",
			description: "FAST TR330006100519786457841326 Ahmet Yılmaz",
			want:        "FAST TR33 0006 1005 1978 6457 8413 26 IBAN'ına gönderildi Ahmet Yılmaz",
		},
		{
			name:        "AlreadyMentionsIBAN",
			description: "TR330006100519786457841326 IBAN'ına gönderildi",
			want:        "TR330006100519786457841326 IBAN'ına gönderildi",
		},
		{
			name:        "AlreadyFormatted",
			description: "Havale TR33 0006 1005 1978 6457 8413 26",
			want:        "Havale TR33 0006 1005 1978 6457 8413 26",
		},
		{
			name:        "NoIBAN",
			description: "MIGROS TICARET A.S.",
			want:        "MIGROS TICARET A.S.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.EnhanceDescription(tt.description))
		})
	}
}
