// Package console prints posts to a terminal instead of sending them anywhere.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bft-labs/skyship/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05 -07:00"

// Notifier implements ports.Notifier by writing each post to w.
// The destination is ignored.
type Notifier struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// NewNotifier creates a console notifier printing times in local time.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w, loc: time.Local}
}

// WithLocation returns n printing times in loc.
func (n *Notifier) WithLocation(loc *time.Location) *Notifier {
	n.loc = loc
	return n
}

// Notify prints "<created at> - <author>" followed by the post text, each
// line indented by two spaces.
func (n *Notifier) Notify(ctx context.Context, destination string, post domain.Post) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", post.Record.CreatedAt.In(n.loc).Format(timeLayout), post.AuthorName())
	for _, line := range strings.Split(post.Record.Text, "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := io.WriteString(n.w, b.String())
	return err
}
