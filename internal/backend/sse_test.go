package backend

import (
	"io"
	"strings"
	"testing"
)

func collectEvents(t *testing.T, input string) []string {
	t.Helper()
	scanner := NewEventScanner(strings.NewReader(input))
	var out []string
	for {
		data, err := scanner.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		out = append(out, data)
	}
}

func TestEventScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single event",
			input: "data: {\"response\":\"hi\"}\n\n",
			want:  []string{`{"response":"hi"}`},
		},
		{
			name:  "multiple events",
			input: "data: one\n\ndata: two\n\ndata: three\n\n",
			want:  []string{"one", "two", "three"},
		},
		{
			name:  "crlf line endings",
			input: "data: one\r\n\r\ndata: two\r\n\r\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "multi-line data joined with newline",
			input: "data: first\ndata: second\n\n",
			want:  []string{"first\nsecond"},
		},
		{
			name:  "comments and other fields ignored",
			input: ": keepalive\nevent: message\nid: 3\ndata: one\n\n: keepalive\n\n",
			want:  []string{"one"},
		},
		{
			name:  "no space after colon",
			input: "data:one\n\n",
			want:  []string{"one"},
		},
		{
			name:  "final event without trailing blank line",
			input: "data: one\n\ndata: [DONE]",
			want:  []string{"one", "[DONE]"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "blank lines without data produce nothing",
			input: "\n\n\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectEvents(t, tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events %q, want %d %q", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantFragment string
		wantDone     bool
		wantErr      bool
	}{
		{
			name:         "fragment",
			data:         `{"response":"Hello"}`,
			wantFragment: "Hello",
		},
		{
			name: "empty fragment",
			data: `{"response":""}`,
		},
		{
			name: "missing response field",
			data: `{"p":0.9}`,
		},
		{
			name:     "done sentinel",
			data:     "[DONE]",
			wantDone: true,
		},
		{
			name:    "malformed json",
			data:    "{not json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment, done, err := decodePayload(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if fragment != tt.wantFragment {
				t.Errorf("fragment = %q, want %q", fragment, tt.wantFragment)
			}
			if done != tt.wantDone {
				t.Errorf("done = %v, want %v", done, tt.wantDone)
			}
		})
	}
}
