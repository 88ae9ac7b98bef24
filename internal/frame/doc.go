// Package frame decodes and encodes event-stream messages.
//
// Every transport message is two concatenated CBOR items: a header map
// {op, t} and a body. Decode splits them and classifies the message; the body
// stays encoded until a caller asks for it with DecodeCommit.
package frame
