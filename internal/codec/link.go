package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
)

// TagCIDLink is the CBOR tag DAG-CBOR uses for CID links.
const TagCIDLink = 42

// Link is a CID carried as a DAG-CBOR link.
type Link struct {
	Cid cid.Cid
}

// NewLink wraps c.
func NewLink(c cid.Cid) *Link {
	return &Link{Cid: c}
}

// MarshalCBOR implements cbor.Marshaler.
func (l Link) MarshalCBOR() ([]byte, error) {
	if !l.Cid.Defined() {
		return nil, errors.New("codec: cannot encode undefined cid link")
	}
	content := append([]byte{0x00}, l.Cid.Bytes()...)
	return encMode.Marshal(cbor.Tag{Number: TagCIDLink, Content: content})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (l *Link) UnmarshalCBOR(data []byte) error {
	var raw cbor.RawTag
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cid link: %w", err)
	}
	if raw.Number != TagCIDLink {
		return fmt.Errorf("cid link: unexpected tag %d", raw.Number)
	}
	var content []byte
	if err := decMode.Unmarshal(raw.Content, &content); err != nil {
		return fmt.Errorf("cid link: %w", err)
	}
	if len(content) < 2 || content[0] != 0x00 {
		return errors.New("cid link: missing identity multibase prefix")
	}
	c, err := cid.Cast(content[1:])
	if err != nil {
		return fmt.Errorf("cid link: %w", err)
	}
	l.Cid = c
	return nil
}
