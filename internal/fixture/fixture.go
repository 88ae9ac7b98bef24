// Package fixture builds content-addressed test data: blocks, post records,
// commit archives and stream frames. Everything it produces is what a relay
// would put on the wire.
package fixture

import (
	"bytes"
	"testing"
	"time"

	"github.com/bft-labs/skyship/internal/car"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/frame"
	"github.com/bft-labs/skyship/internal/record"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns the CIDv1 (dag-cbor, sha2-256) of data.
func CID(t testing.TB, data []byte) cid.Cid {
	t.Helper()
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum failed: %v", err)
	}
	return cid.NewCidV1(cid.DagCBOR, sum)
}

// Block addresses data by its CID.
func Block(t testing.TB, data []byte) car.Entry {
	t.Helper()
	return car.Entry{CID: CID(t, data), Data: data}
}

// Post encodes a post record with the given text and RFC 3339 creation time.
func Post(t testing.TB, text, createdAt string) []byte {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		t.Fatalf("parse createdAt %q: %v", createdAt, err)
	}
	b, err := record.Encode(domain.Record{Type: domain.PostCollection, Text: text, CreatedAt: ts})
	if err != nil {
		t.Fatalf("record.Encode failed: %v", err)
	}
	return b
}

// Archive encodes entries as a CARv1 archive rooted at the first entry.
func Archive(t testing.TB, entries ...car.Entry) []byte {
	t.Helper()
	var roots []cid.Cid
	if len(entries) > 0 {
		roots = []cid.Cid{entries[0].CID}
	}
	var buf bytes.Buffer
	if err := car.Write(&buf, roots, entries); err != nil {
		t.Fatalf("car.Write failed: %v", err)
	}
	return buf.Bytes()
}

// CreateOp is a create operation for block in collection.
func CreateOp(collection, rkey string, block car.Entry) domain.RepoOp {
	return domain.RepoOp{
		Action: domain.ActionCreate,
		Path:   collection + "/" + rkey,
		CID:    block.CID,
	}
}

// PostCommit is a commit by repo creating one post, with the post block in
// its archive.
func PostCommit(t testing.TB, repo string, seq int64, text, createdAt string) domain.Commit {
	t.Helper()
	block := Block(t, Post(t, text, createdAt))
	return domain.Commit{
		Seq:    seq,
		Repo:   repo,
		Rev:    "3kabcdefgh2aa",
		Time:   time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
		Ops:    []domain.RepoOp{CreateOp(domain.PostCollection, "3kpost00000aa", block)},
		Blocks: Archive(t, block),
	}
}

// CommitFrame encodes c as a complete #commit stream message.
func CommitFrame(t testing.TB, c domain.Commit) []byte {
	t.Helper()
	body, err := frame.EncodeCommit(c)
	if err != nil {
		t.Fatalf("frame.EncodeCommit failed: %v", err)
	}
	msg, err := frame.Encode("#commit", body)
	if err != nil {
		t.Fatalf("frame.Encode failed: %v", err)
	}
	return msg
}
