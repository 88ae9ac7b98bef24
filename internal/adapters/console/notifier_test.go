package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bft-labs/skyship/internal/domain"
)

func TestNotifier_Notify(t *testing.T) {
	tests := []struct {
		name string
		post domain.Post
		want string
	}{
		{
			name: "handle and multi-line text",
			post: domain.Post{
				Author:       "did:example:abc",
				AuthorHandle: "abc.example.com",
				Record: domain.Record{
					Text:      "hello\nworld",
					CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			want: "2024-01-01 00:00:00 +00:00 - abc.example.com\n  hello\n  world\n",
		},
		{
			name: "falls back to did",
			post: domain.Post{
				Author: "did:example:abc",
				Record: domain.Record{
					Text:      "hi",
					CreatedAt: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
				},
			},
			want: "2024-01-01 12:30:00 +00:00 - did:example:abc\n  hi\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewNotifier(&buf).WithLocation(time.UTC)

			if err := n.Notify(context.Background(), "", tt.post); err != nil {
				t.Fatalf("Notify failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
