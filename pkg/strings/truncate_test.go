package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "hello world this is a long string",
			maxLen:   15,
			expected: "hello world ...",
		},
		{
			name:     "json body collapsed onto one line",
			input:    "{\n  \"error\": \"unauthorized\"\n}",
			maxLen:   40,
			expected: "{ \"error\": \"unauthorized\" }",
		},
		{
			name:     "unicode is cut on rune boundaries",
			input:    "héllo wörld",
			maxLen:   8,
			expected: "héllo...",
		},
		{
			name:     "tiny max length is clamped",
			input:    "abcdefgh",
			maxLen:   1,
			expected: "a...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestMaskIdentity(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"alice@example.com", "ali***@example.com"},
		{"octocat", "oct***"},
		{"ab", "***"},
		{"abc@corp.io", "***@corp.io"},
		{"", "***"},
	}

	for _, tt := range tests {
		if got := MaskIdentity(tt.input); got != tt.expected {
			t.Errorf("MaskIdentity(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
