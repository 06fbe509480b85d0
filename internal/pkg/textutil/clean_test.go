package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanStripsNoise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "Hello, world!",
			want:  "Hello, world!",
		},
		{
			name:  "cyrillic preserved",
			input: "Договір № 123 про надання послуг",
			want:  "Договір 123 про надання послуг",
		},
		{
			name:  "symbols removed",
			input: "price: $100 @ 5% *special*",
			want:  "price: 100 5 special",
		},
		{
			name:  "whitespace collapsed",
			input: "a   b\t\tc\n\nd",
			want:  "a b c d",
		},
		{
			name:  "leading and trailing trimmed",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"Hello,   world! \n Це тест.",
		"already clean text",
		"###@@@",
	}
	for _, input := range inputs {
		once := Clean(input)
		assert.Equal(t, once, Clean(once))
	}
}
