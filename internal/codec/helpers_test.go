package codec

import "github.com/fxamacker/cbor/v2"

func rawTag(content []byte) cbor.Tag {
	return cbor.Tag{Number: TagCIDLink, Content: content}
}
