package payweb

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// Codec computes and verifies the shared-secret checksum PayWeb3 attaches to
// every request and response. The digest is MD5 over the concatenation of all
// non-empty field values, in post order, followed by the merchant encryption
// key. MD5 is what the provider computes on its side; both ends must agree
// bit-for-bit, so it cannot be swapped for a stronger hash here.
type Codec struct {
	key string
}

func NewCodec(encryptionKey string) Codec {
	return Codec{key: encryptionKey}
}

// Digest returns the hex checksum of fields. Empty values are skipped and the
// CHECKSUM field itself is never part of the input.
func (c Codec) Digest(fields Fields) string {
	h := md5.New()
	for _, it := range fields.items {
		if it.name == FieldChecksum || it.value == "" {
			continue
		}
		h.Write([]byte(it.value))
	}
	h.Write([]byte(c.key))
	return hex.EncodeToString(h.Sum(nil))
}

// Sign attaches the computed CHECKSUM field.
func (c Codec) Sign(fields *Fields) {
	fields.Set(FieldChecksum, c.Digest(*fields))
}

// Verify recomputes the digest over everything except CHECKSUM and compares
// it against the posted value in constant time. A payload with no CHECKSUM
// field fails closed.
func (c Codec) Verify(fields Fields) bool {
	posted, ok := fields.Lookup(FieldChecksum)
	if !ok || posted == "" {
		return false
	}
	want := c.Digest(fields)
	return subtle.ConstantTimeCompare([]byte(posted), []byte(want)) == 1
}
