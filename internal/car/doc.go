// Package car reads and writes CARv1 archives, the block container a commit
// ships its records in.
//
// An archive is a varint-prefixed DAG-CBOR header {version: 1, roots: [...]}
// followed by varint-prefixed sections, each a binary CID and the block it
// addresses. Parse reads everything in one pass and, unless told otherwise,
// re-hashes every block against its CID.
package car
