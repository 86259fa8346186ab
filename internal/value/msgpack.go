package value

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ msgpack.CustomEncoder = TaggedValue{}
	_ msgpack.CustomDecoder = (*TaggedValue)(nil)
)

// EncodeMsgpack writes [tag, payload].
func (v TaggedValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(v.tag)); err != nil {
		return err
	}
	return enc.EncodeUint64(v.bits)
}

// DecodeMsgpack rejects values whose tag and payload disagree.
func (v *TaggedValue) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("tagged value: expected 2 elements, got %d", n)
	}
	tag, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	bits, err := dec.DecodeUint64()
	if err != nil {
		return err
	}
	t := Tag(tag)
	switch {
	case !t.Valid():
		return fmt.Errorf("tagged value: unknown tag %d", tag)
	case t == TagNone && bits != 0:
		return fmt.Errorf("tagged value: None with payload %#x", bits)
	case t == TagBool && bits > 1:
		return fmt.Errorf("tagged value: bool with payload %#x", bits)
	case t == TagStr && bits > uint64(^uint32(0)):
		return fmt.Errorf("tagged value: str ref %#x out of range", bits)
	}
	*v = TaggedValue{tag: t, bits: bits}
	return nil
}

// EncodeMsgpack writes the pool image as a byte string.
func (p *StrPool) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBytes(p.data)
}

func (p *StrPool) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	p.data = raw
	return nil
}
