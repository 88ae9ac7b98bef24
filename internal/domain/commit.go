package domain

import (
	"strings"
	"time"

	"github.com/ipfs/go-cid"
)

// ActionCreate is the only repository operation action the dispatcher acts on.
const ActionCreate = "create"

// RepoOp is one operation inside a commit.
type RepoOp struct {
	// Action is "create", "update" or "delete".
	Action string

	// Path is "<collection>/<record key>".
	Path string

	// CID addresses the record block in the commit archive.
	// It is cid.Undef for deletes.
	CID cid.Cid
}

// Collection returns the leading path segment of the operation.
func (o RepoOp) Collection() string {
	collection, _, _ := strings.Cut(o.Path, "/")
	return collection
}

// Commit describes one author's repository mutation batch.
type Commit struct {
	// Seq is the relay sequence number of the event.
	Seq int64

	// Repo is the author's stable identity (a DID).
	Repo string

	// Rev is the repository revision produced by this commit.
	Rev string

	// Time is when the relay received the commit.
	Time time.Time

	// TooBig is set when the relay dropped blocks because the commit was oversized.
	TooBig bool

	// Ops lists the operations in commit order.
	Ops []RepoOp

	// Blocks is the raw CAR archive covering every block the ops reference.
	Blocks []byte
}
