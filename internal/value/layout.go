package value

// TagInfo describes how one tag uses the payload word.
type TagInfo struct {
	Tag     Tag    `msgpack:"tag"`
	Name    string `msgpack:"name"`
	Payload string `msgpack:"payload"`
}

// Layout is the memory contract the backend lowers TaggedValue to.
type Layout struct {
	Size          uint32    `msgpack:"size"`
	Align         uint32    `msgpack:"align"`
	TagOffset     uint32    `msgpack:"tag_offset"`
	TagSize       uint32    `msgpack:"tag_size"`
	PayloadOffset uint32    `msgpack:"payload_offset"`
	PayloadSize   uint32    `msgpack:"payload_size"`
	StrHeader     uint32    `msgpack:"str_header"`
	Tags          []TagInfo `msgpack:"tags"`
}

// DefaultLayout: one tag byte padded to 8, then the 64-bit payload.
func DefaultLayout() Layout {
	return Layout{
		Size:          16,
		Align:         8,
		TagOffset:     0,
		TagSize:       1,
		PayloadOffset: 8,
		PayloadSize:   8,
		StrHeader:     strHeader,
		Tags: []TagInfo{
			{Tag: TagNone, Name: TagNone.String(), Payload: "unused"},
			{Tag: TagBool, Name: TagBool.String(), Payload: "u64 0|1"},
			{Tag: TagInt, Name: TagInt.String(), Payload: "i64 two's complement"},
			{Tag: TagFloat, Name: TagFloat.String(), Payload: "f64 IEEE-754 bits"},
			{Tag: TagStr, Name: TagStr.String(), Payload: "u32 pool ref, [len:u32le][bytes]"},
		},
	}
}
