package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type payload struct {
	Tag    string `json:"tag"`
	Amount int64  `json:"amount"`
}

func TestJSONSerializers(t *testing.T) {
	for _, s := range []Serializer{JSONSerializer{}, CompatJSONSerializer{}} {
		in := payload{Tag: "t", Amount: 9}
		data, err := s.Marshal(in)
		assert.NoError(t, err, s.Name())
		assert.JSONEq(t, `{"tag":"t","amount":9}`, string(data), s.Name())

		var out payload
		assert.NoError(t, s.Unmarshal(data, &out), s.Name())
		assert.Equal(t, in, out, s.Name())
	}
}

func TestGobSerializer(t *testing.T) {
	s := GobSerializer{}
	in := payload{Tag: "t", Amount: 9}

	data, err := s.Marshal(in)
	assert.NoError(t, err)

	var out payload
	assert.NoError(t, s.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestProtoSerializer(t *testing.T) {
	s := ProtoSerializer{}

	data, err := s.Marshal(wrapperspb.Int64(9))
	assert.NoError(t, err)

	out := &wrapperspb.Int64Value{}
	assert.NoError(t, s.Unmarshal(data, out))
	assert.EqualValues(t, 9, out.GetValue())

	// 非 proto.Message 直接拒绝。
	_, err = s.Marshal(payload{})
	assert.Error(t, err)
	assert.Error(t, s.Unmarshal(data, &payload{}))
}

func TestByName(t *testing.T) {
	for _, name := range []string{NameJSON, NameCompatJSON, NameGob, NameProto} {
		s, err := ByName(name)
		assert.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := ByName("msgpack")
	assert.Error(t, err)
}
