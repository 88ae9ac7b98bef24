// Package codec holds skyship's shared CBOR configuration.
//
// The event stream, commit archives and records are all DAG-CBOR. Every
// package that reads or writes them goes through the modes configured here so
// that decoding limits and tag handling stay identical across the pipeline.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items, which is the
// shape DAG-CBOR requires for content addressing.
//
// CID links are CBOR tag 42 wrapping a byte string of 0x00 followed by the
// binary CID; [Link] implements that mapping.
package codec
