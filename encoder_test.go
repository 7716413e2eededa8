package jobq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoders_Roundtrip(t *testing.T) {
	type P struct {
		A int    `json:"a" msgpack:"a"`
		B string `json:"b" msgpack:"b"`
	}
	for name, enc := range map[string]Encoder{"json": &JSONEncoder{}, "msgpack": &MsgpackEncoder{}} {
		t.Run(name, func(t *testing.T) {
			in := P{A: 42, B: "x"}
			data, err := enc.Encode(in)
			require.NoError(t, err, "encode should not error")

			var out P
			require.NoError(t, enc.Decode(data, &out), "decode should not error")
			assert.Equal(t, in, out, "roundtrip mismatch")
		})
	}
}

func TestJSONEncoder_DecodeError(t *testing.T) {
	enc := &JSONEncoder{}
	var out struct{ A int }
	err := enc.Decode([]byte("{"), &out)
	require.Error(t, err, "expected error for invalid JSON")
}

func TestEncoders_EncodeUnsupported(t *testing.T) {
	_, err := (&JSONEncoder{}).Encode(make(chan int))
	require.Error(t, err)
	_, err = (&MsgpackEncoder{}).Encode(make(chan int))
	require.Error(t, err)
}
