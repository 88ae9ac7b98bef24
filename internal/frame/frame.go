package frame

import (
	"errors"
	"fmt"

	"github.com/bft-labs/skyship/internal/codec"
	"github.com/bft-labs/skyship/internal/domain"
)

type header struct {
	Op *int64 `cbor:"op"`
	T  string `cbor:"t,omitempty"`
}

type errorBody struct {
	Error   string `cbor:"error"`
	Message string `cbor:"message,omitempty"`
}

// Decode splits one complete transport message into header and body.
//
// Message frames yield a Frame with the body left encoded. Error frames and
// anything unreadable yield a *domain.FrameError.
func Decode(raw []byte) (domain.Frame, error) {
	if len(raw) == 0 {
		return domain.Frame{}, malformed(errors.New("empty message"))
	}

	var h header
	body, err := codec.UnmarshalFirst(raw, &h)
	if err != nil {
		return domain.Frame{}, malformed(fmt.Errorf("header: %w", err))
	}
	if h.Op == nil {
		return domain.Frame{}, malformed(errors.New("header: missing op"))
	}

	switch domain.FrameOp(*h.Op) {
	case domain.OpMessage:
		return domain.Frame{
			Type: domain.ParseMessageType(h.T),
			Tag:  h.T,
			Body: body,
		}, nil

	case domain.OpError:
		var eb errorBody
		if err := codec.Unmarshal(body, &eb); err != nil {
			return domain.Frame{}, malformed(fmt.Errorf("error body: %w", err))
		}
		return domain.Frame{}, &domain.FrameError{
			Kind:       domain.FrameRemote,
			RemoteKind: eb.Error,
			Message:    eb.Message,
		}

	default:
		return domain.Frame{}, malformed(fmt.Errorf("header: unknown op %d", *h.Op))
	}
}

// Encode builds a message frame with discriminator t. An empty t omits the
// discriminator from the header.
func Encode(t string, body []byte) ([]byte, error) {
	op := int64(domain.OpMessage)
	h, err := codec.Marshal(header{Op: &op, T: t})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	return append(h, body...), nil
}

// EncodeError builds an error frame as a relay sends before closing.
func EncodeError(kind, message string) ([]byte, error) {
	op := int64(domain.OpError)
	h, err := codec.Marshal(header{Op: &op})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	b, err := codec.Marshal(errorBody{Error: kind, Message: message})
	if err != nil {
		return nil, fmt.Errorf("encode error body: %w", err)
	}
	return append(h, b...), nil
}

func malformed(err error) *domain.FrameError {
	return &domain.FrameError{Kind: domain.FrameMalformed, Err: err}
}
