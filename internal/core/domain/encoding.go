package domain

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// maxListLen bounds every length-prefixed collection in the canonical
// encoding. Constructors enforce it so that Encode is a total function.
const maxListLen = math.MaxUint16

var errTrailingBytes = errors.New("trailing bytes after decoded value")

// serializer writes the canonical binary form shared by content ids,
// commitments and the consignment wire format. Integers are little-endian,
// collections are uint16-length-prefixed and field order is fixed. Any
// change here is consensus-breaking.
type serializer struct {
	buf bytes.Buffer
}

func (s *serializer) putUint8(v uint8) {
	s.buf.WriteByte(v)
}

func (s *serializer) putUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	s.buf.Write(b[:])
}

func (s *serializer) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.buf.Write(b[:])
}

func (s *serializer) putUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.buf.Write(b[:])
}

func (s *serializer) putHash(h chainhash.Hash) {
	s.buf.Write(h[:])
}

// putBytes assumes len(b) <= maxListLen; only used for fields the model
// constructors bound directly (names, keys, signatures).
func (s *serializer) putBytes(b []byte) {
	s.putUint16(uint16(len(b)))
	s.buf.Write(b)
}

// putBytes32 carries nested node encodings. Their element counts are
// bounded at maxListLen but their encoded size is not, so the prefix must
// be wider than uint16.
func (s *serializer) putBytes32(b []byte) {
	s.putUint32(uint32(len(b)))
	s.buf.Write(b)
}

func (s *serializer) putString(str string) {
	s.putBytes([]byte(str))
}

func (s *serializer) bytes() []byte {
	return s.buf.Bytes()
}

type deserializer struct {
	r *bytes.Reader
}

func newDeserializer(b []byte) *deserializer {
	return &deserializer{r: bytes.NewReader(b)}
}

func (d *deserializer) readFull(b []byte) error {
	n, err := d.r.Read(b)
	if err != nil || n != len(b) {
		return fmt.Errorf("unexpected end of encoded value")
	}
	return nil
}

func (d *deserializer) uint8() (uint8, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("unexpected end of encoded value")
	}
	return b, nil
}

func (d *deserializer) uint16() (uint16, error) {
	var b [2]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (d *deserializer) uint32() (uint32, error) {
	var b [4]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (d *deserializer) uint64() (uint64, error) {
	var b [8]byte
	if err := d.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (d *deserializer) hash() (chainhash.Hash, error) {
	var h chainhash.Hash
	if err := d.readFull(h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func (d *deserializer) bytes() ([]byte, error) {
	n, err := d.uint16()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if err := d.readFull(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *deserializer) bytes32() ([]byte, error) {
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	// Bound the allocation by what is actually left to read.
	if int(n) > d.r.Len() {
		return nil, fmt.Errorf("unexpected end of encoded value")
	}
	b := make([]byte, n)
	if n > 0 {
		if err := d.readFull(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *deserializer) string() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// finish must be called after the outermost value has been decoded: the
// canonical encoding never carries padding.
func (d *deserializer) finish() error {
	if d.r.Len() > 0 {
		return errTrailingBytes
	}
	return nil
}
