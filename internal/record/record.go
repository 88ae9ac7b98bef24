// Package record decodes post records taken out of commit archives.
package record

import (
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/skyship/internal/codec"
	"github.com/bft-labs/skyship/internal/domain"
)

type strongRef struct {
	URI string `cbor:"uri"`
	CID string `cbor:"cid,omitempty"`
}

type replyRef struct {
	Root   strongRef `cbor:"root"`
	Parent strongRef `cbor:"parent"`
}

type post struct {
	Type      string    `cbor:"$type"`
	Text      *string   `cbor:"text"`
	CreatedAt string    `cbor:"createdAt"`
	Langs     []string  `cbor:"langs,omitempty"`
	Reply     *replyRef `cbor:"reply,omitempty"`
}

// Decode decodes a DAG-CBOR post record. Fields other than the ones
// domain.Record carries are ignored. Every failure is a *domain.DecodeError.
func Decode(raw []byte) (domain.Record, error) {
	var p post
	if err := codec.Unmarshal(raw, &p); err != nil {
		return domain.Record{}, &domain.DecodeError{Err: err}
	}
	if p.Type != "" && p.Type != domain.PostCollection {
		return domain.Record{}, &domain.DecodeError{Err: fmt.Errorf("unexpected $type %q", p.Type)}
	}
	if p.Text == nil {
		return domain.Record{}, &domain.DecodeError{Err: errors.New("missing text")}
	}
	createdAt, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return domain.Record{}, &domain.DecodeError{Err: fmt.Errorf("createdAt: %w", err)}
	}

	r := domain.Record{
		Type:      p.Type,
		Text:      *p.Text,
		CreatedAt: createdAt,
		Langs:     p.Langs,
	}
	if p.Reply != nil {
		r.ReplyTo = p.Reply.Parent.URI
	}
	return r, nil
}

// Encode encodes r as a DAG-CBOR post record.
func Encode(r domain.Record) ([]byte, error) {
	text := r.Text
	p := post{
		Type:      r.Type,
		Text:      &text,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		Langs:     r.Langs,
	}
	if p.Type == "" {
		p.Type = domain.PostCollection
	}
	if r.ReplyTo != "" {
		p.Reply = &replyRef{Root: strongRef{URI: r.ReplyTo}, Parent: strongRef{URI: r.ReplyTo}}
	}
	b, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}
