package pgx

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain label", input: "Tadpole", want: "Tadpole"},
		{name: "null byte", input: "Tad\x00pole", want: "Tadpole"},
		{name: "invalid utf8", input: string([]byte{'a', 0xff, 'b'}), want: "ab"},
		{name: "control characters", input: "Egg\x07\x1b\x7f", want: "Egg"},
		{name: "line breaks kept", input: "Adult\nFrog\tstage", want: "Adult\nFrog\tstage"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.input); got != tt.want {
				t.Fatalf("cleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
