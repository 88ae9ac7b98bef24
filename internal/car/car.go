package car

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/skyship/internal/codec"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
)

// Entry is one block in an archive.
type Entry struct {
	CID  cid.Cid
	Data []byte
}

// Archive is a parsed CARv1 archive. Entries keep archive order.
type Archive struct {
	Roots   []cid.Cid
	Entries []Entry
}

type header struct {
	Version uint64       `cbor:"version"`
	Roots   []codec.Link `cbor:"roots"`
}

type options struct {
	verify bool
}

// Option configures Parse.
type Option func(*options)

// WithoutVerify skips re-hashing blocks against their CIDs.
func WithoutVerify() Option {
	return func(o *options) { o.verify = false }
}

// Parse reads a complete CARv1 archive.
//
// Structural problems return a *domain.ExtractError wrapping
// domain.ErrMalformedArchive. A block whose content does not hash to its CID
// returns one wrapping domain.ErrBlockMismatch.
func Parse(archive []byte, opts ...Option) (*Archive, error) {
	o := options{verify: true}
	for _, opt := range opts {
		opt(&o)
	}

	hdrBytes, rest, err := section(archive)
	if err != nil {
		return nil, malformed("header: %w", err)
	}
	var h header
	if err := codec.Unmarshal(hdrBytes, &h); err != nil {
		return nil, malformed("header: %w", err)
	}
	if h.Version != 1 {
		return nil, malformed("unsupported version %d", h.Version)
	}

	a := &Archive{Roots: make([]cid.Cid, 0, len(h.Roots))}
	for _, r := range h.Roots {
		a.Roots = append(a.Roots, r.Cid)
	}

	for len(rest) > 0 {
		var sec []byte
		sec, rest, err = section(rest)
		if err != nil {
			return nil, malformed("section %d: %w", len(a.Entries), err)
		}
		n, c, err := cid.CidFromBytes(sec)
		if err != nil {
			return nil, malformed("section %d: cid: %w", len(a.Entries), err)
		}
		data := sec[n:]
		if o.verify {
			if err := verify(c, data); err != nil {
				return nil, &domain.ExtractError{Target: c, EntriesScanned: len(a.Entries), Err: err}
			}
		}
		a.Entries = append(a.Entries, Entry{CID: c, Data: data})
	}
	return a, nil
}

// Find returns the block addressed by target. CIDs are compared by their
// exact binary encoding, so a CIDv0 never matches its CIDv1 equivalent.
func (a *Archive) Find(target cid.Cid) ([]byte, error) {
	for _, e := range a.Entries {
		if e.CID.Equals(target) {
			return e.Data, nil
		}
	}
	return nil, &domain.ExtractError{
		Target:         target,
		EntriesScanned: len(a.Entries),
		Err:            domain.ErrBlockNotFound,
	}
}

// Extract parses archive and returns the block addressed by target.
func Extract(archive []byte, target cid.Cid, opts ...Option) ([]byte, error) {
	a, err := Parse(archive, opts...)
	if err != nil {
		return nil, err
	}
	return a.Find(target)
}

// Write encodes a CARv1 archive.
func Write(w io.Writer, roots []cid.Cid, entries []Entry) error {
	h := header{Version: 1, Roots: make([]codec.Link, 0, len(roots))}
	for _, r := range roots {
		h.Roots = append(h.Roots, codec.Link{Cid: r})
	}
	hdrBytes, err := codec.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode car header: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(varint.ToUvarint(uint64(len(hdrBytes))))
	buf.Write(hdrBytes)
	for _, e := range entries {
		c := e.CID.Bytes()
		buf.Write(varint.ToUvarint(uint64(len(c) + len(e.Data))))
		buf.Write(c)
		buf.Write(e.Data)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// section splits one varint-prefixed section off the front of b.
func section(b []byte) (sec, rest []byte, err error) {
	n, read, err := varint.FromUvarint(b)
	if err != nil {
		return nil, nil, fmt.Errorf("length prefix: %w", err)
	}
	if n == 0 {
		return nil, nil, errors.New("zero-length section")
	}
	b = b[read:]
	if uint64(len(b)) < n {
		return nil, nil, fmt.Errorf("truncated: want %d bytes, have %d", n, len(b))
	}
	return b[:n], b[n:], nil
}

func verify(c cid.Cid, data []byte) error {
	dh, err := multihash.Decode(c.Hash())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrMalformedArchive, c, err)
	}
	sum, err := multihash.Sum(data, dh.Code, dh.Length)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrMalformedArchive, c, err)
	}
	if !bytes.Equal(sum, c.Hash()) {
		return fmt.Errorf("%w: %s", domain.ErrBlockMismatch, c)
	}
	return nil
}

func malformed(format string, args ...any) *domain.ExtractError {
	return &domain.ExtractError{
		Err: fmt.Errorf("%w: %w", domain.ErrMalformedArchive, fmt.Errorf(format, args...)),
	}
}
