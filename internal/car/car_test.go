package car_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bft-labs/skyship/internal/car"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/fixture"
)

func TestParse(t *testing.T) {
	a := fixture.Block(t, []byte{0xa1, 0x61, 0x61, 0x01})
	b := fixture.Block(t, fixture.Post(t, "hello", "2024-01-01T00:00:00Z"))

	arc, err := car.Parse(fixture.Archive(t, a, b))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(arc.Roots) != 1 || !arc.Roots[0].Equals(a.CID) {
		t.Errorf("Roots = %v, want [%s]", arc.Roots, a.CID)
	}
	if len(arc.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(arc.Entries))
	}
	if !arc.Entries[1].CID.Equals(b.CID) {
		t.Errorf("entries out of archive order")
	}
}

func TestFind(t *testing.T) {
	a := fixture.Block(t, []byte("first"))
	b := fixture.Block(t, []byte("second"))
	missing := fixture.Block(t, []byte("missing"))

	arc, err := car.Parse(fixture.Archive(t, a, b))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got, err := arc.Find(b.CID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !bytes.Equal(got, b.Data) {
		t.Errorf("Find = %q, want %q", got, b.Data)
	}

	_, err = arc.Find(missing.CID)
	if !errors.Is(err, domain.ErrBlockNotFound) {
		t.Fatalf("Find error = %v, want ErrBlockNotFound", err)
	}
	var ee *domain.ExtractError
	if !errors.As(err, &ee) {
		t.Fatalf("Find error is %T, want *domain.ExtractError", err)
	}
	if !ee.Target.Equals(missing.CID) || ee.EntriesScanned != 2 {
		t.Errorf("ExtractError = %+v", ee)
	}
}

func TestExtract(t *testing.T) {
	post := fixture.Block(t, fixture.Post(t, "hello", "2024-01-01T00:00:00Z"))
	got, err := car.Extract(fixture.Archive(t, post), post.CID)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(got, post.Data) {
		t.Error("Extract returned different bytes")
	}
}

func TestParse_Empty(t *testing.T) {
	arc, err := car.Parse(fixture.Archive(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(arc.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(arc.Entries))
	}
	if _, err := arc.Find(fixture.CID(t, []byte("x"))); !errors.Is(err, domain.ErrBlockNotFound) {
		t.Errorf("Find on empty archive = %v, want ErrBlockNotFound", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	good := fixture.Archive(t, fixture.Block(t, []byte("block")))

	var v2 bytes.Buffer
	// CARv2 pragma: 0x0a then {version: 2}.
	v2.Write([]byte{0x0a, 0xa1, 0x67, 'v', 'e', 'r', 's', 'i', 'o', 'n', 0x02})

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "bad varint", raw: []byte{0xff, 0xff}},
		{name: "truncated header", raw: good[:3]},
		{name: "truncated section", raw: good[:len(good)-2]},
		{name: "version 2", raw: v2.Bytes()},
		{name: "header not cbor", raw: []byte{0x02, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := car.Parse(tt.raw)
			if !errors.Is(err, domain.ErrMalformedArchive) {
				t.Fatalf("Parse error = %v, want ErrMalformedArchive", err)
			}
		})
	}
}

func TestParse_BlockMismatch(t *testing.T) {
	genuine := fixture.Block(t, []byte("real content"))
	forged := car.Entry{CID: genuine.CID, Data: []byte("forged content")}

	var buf bytes.Buffer
	if err := car.Write(&buf, nil, []car.Entry{forged}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := car.Parse(buf.Bytes()); !errors.Is(err, domain.ErrBlockMismatch) {
		t.Fatalf("Parse error = %v, want ErrBlockMismatch", err)
	}

	arc, err := car.Parse(buf.Bytes(), car.WithoutVerify())
	if err != nil {
		t.Fatalf("Parse without verify failed: %v", err)
	}
	if got, _ := arc.Find(genuine.CID); !bytes.Equal(got, forged.Data) {
		t.Error("expected forged block to be returned when verification is off")
	}
}
