package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/skyship/internal/codec"
	"github.com/bft-labs/skyship/internal/domain"
)

type commitBody struct {
	Seq    int64        `cbor:"seq"`
	Repo   string       `cbor:"repo"`
	Rev    string       `cbor:"rev"`
	Since  *string      `cbor:"since"`
	Time   string       `cbor:"time"`
	TooBig bool         `cbor:"tooBig"`
	Rebase bool         `cbor:"rebase"`
	Ops    []repoOpBody `cbor:"ops"`
	Blocks []byte       `cbor:"blocks"`
	Commit *codec.Link  `cbor:"commit,omitempty"`
}

type repoOpBody struct {
	Action string      `cbor:"action"`
	Path   string      `cbor:"path"`
	CID    *codec.Link `cbor:"cid"`
}

// DecodeCommit decodes the body of a #commit frame.
func DecodeCommit(body []byte) (domain.Commit, error) {
	var cb commitBody
	if err := codec.Unmarshal(body, &cb); err != nil {
		return domain.Commit{}, fmt.Errorf("%w: commit body: %w", domain.ErrMalformedFrame, err)
	}
	if cb.Repo == "" {
		return domain.Commit{}, fmt.Errorf("%w: commit body: %w", domain.ErrMalformedFrame, errors.New("missing repo"))
	}

	commit := domain.Commit{
		Seq:    cb.Seq,
		Repo:   cb.Repo,
		Rev:    cb.Rev,
		TooBig: cb.TooBig,
		Blocks: cb.Blocks,
		Ops:    make([]domain.RepoOp, 0, len(cb.Ops)),
	}
	// A bad relay timestamp is not worth dropping the commit over.
	if t, err := time.Parse(time.RFC3339Nano, cb.Time); err == nil {
		commit.Time = t
	}
	for _, op := range cb.Ops {
		ro := domain.RepoOp{Action: op.Action, Path: op.Path}
		if op.CID != nil {
			ro.CID = op.CID.Cid
		}
		commit.Ops = append(commit.Ops, ro)
	}
	return commit, nil
}

// EncodeCommit encodes c as a #commit frame body.
func EncodeCommit(c domain.Commit) ([]byte, error) {
	cb := commitBody{
		Seq:    c.Seq,
		Repo:   c.Repo,
		Rev:    c.Rev,
		TooBig: c.TooBig,
		Blocks: c.Blocks,
		Ops:    make([]repoOpBody, 0, len(c.Ops)),
	}
	if cb.Blocks == nil {
		cb.Blocks = []byte{}
	}
	if !c.Time.IsZero() {
		cb.Time = c.Time.UTC().Format(time.RFC3339Nano)
	}
	for _, op := range c.Ops {
		ob := repoOpBody{Action: op.Action, Path: op.Path}
		if op.CID.Defined() {
			ob.CID = codec.NewLink(op.CID)
		}
		cb.Ops = append(cb.Ops, ob)
	}
	b, err := codec.Marshal(cb)
	if err != nil {
		return nil, fmt.Errorf("encode commit: %w", err)
	}
	return b, nil
}
