package vecindex

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func TestQuery_OrdersByCosine(t *testing.T) {
	var x Index
	require.NoError(t, x.Build(
		[]string{"east", "north", "north-east"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
	))

	hits, err := x.Query([]float32{1, 0.1}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].ID)
	assert.Equal(t, "north-east", hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, 2, hits[1].Pos)
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	var x Index
	require.NoError(t, x.Build(
		[]string{"a", "b", "c", "d"},
		[][]float32{{0, 1}, {2, 0}, {1, 0}, {3, 0}},
	))

	hits, err := x.Query([]float32{1, 0}, 0)

	require.NoError(t, err)
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids)
}

func TestQuery_EdgeCases(t *testing.T) {
	var empty Index
	hits, err := empty.Query([]float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	var x Index
	require.NoError(t, x.Add("zero", []float32{0, 0}))
	require.NoError(t, x.Add("one", []float32{1, 0}))

	hits, err = x.Query([]float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2, "k larger than the index returns everything")
	assert.Equal(t, "one", hits[0].ID)
	assert.Zero(t, hits[1].Score)

	_, err = x.Query([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdd_RejectsMixedDimensions(t *testing.T) {
	var x Index
	require.NoError(t, x.Add("a", []float32{1, 2, 3}))

	assert.ErrorIs(t, x.Add("b", []float32{1, 2}), domain.ErrInvalidInput)
	assert.ErrorIs(t, x.Add("c", nil), domain.ErrInvalidInput)
	assert.Equal(t, 1, x.Len())
	assert.Equal(t, 3, x.Dim())

	assert.ErrorIs(t, x.Build([]string{"a"}, nil), domain.ErrInvalidInput)
}

func TestBinaryRoundTrip(t *testing.T) {
	var x Index
	require.NoError(t, x.Build(
		[]string{"fp_0", "fp_1", "文档_2"},
		[][]float32{{0.5, -1, 2}, {1, 1, 1}, {0, 0.25, -0.75}},
	))

	data, err := x.MarshalBinary()
	require.NoError(t, err)

	var y Index
	require.NoError(t, y.UnmarshalBinary(data))
	assert.Equal(t, x.IDs(), y.IDs())
	assert.Equal(t, x.vecs, y.vecs)

	assert.Error(t, y.UnmarshalBinary(data[:len(data)-2]))
	assert.Error(t, y.UnmarshalBinary([]byte{1, 2}))

	var empty Index
	data, err = empty.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, y.UnmarshalBinary(data))
	assert.Zero(t, y.Len())
}

func TestUnmarshalBinary_RejectsOversizedHeader(t *testing.T) {
	header := func(dim, n uint32, extra ...byte) []byte {
		b := binary.LittleEndian.AppendUint32(nil, dim)
		b = binary.LittleEndian.AppendUint32(b, n)
		return append(b, extra...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "count far beyond data", data: header(1, 0xFFFFFFFF)},
		{name: "dimension far beyond data", data: header(0xFFFFFFFF, 1, 0, 0, 0, 0)},
		{name: "items without dimension", data: header(0, 3, make([]byte, 12)...)},
		{name: "one item too many", data: header(2, 2, make([]byte, 12)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var x Index
			assert.Error(t, x.UnmarshalBinary(tt.data))
			assert.Zero(t, x.Len())
		})
	}
}

func TestEmbeddingBlob(t *testing.T) {
	vec := []float32{0.1, -2.5, 3}

	got, err := DecodeEmbedding(EncodeEmbedding(vec))

	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = DecodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
}
