// Package vecindex is an exact cosine-similarity index over float32 vectors.
// Both vector store backends rank with it.
package vecindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// Hit is one ranked result.
type Hit struct {
	// Pos is the insertion position of the item.
	Pos int

	// ID is the item id.
	ID string

	// Score is the cosine similarity to the query.
	Score float64
}

// Index scans every vector on query. Items keep their insertion order.
type Index struct {
	ids  []string
	vecs [][]float32
	mags []float64
	dim  int
}

// Build replaces the contents with ids and vectors.
func (x *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%w: %d ids for %d vectors", domain.ErrInvalidInput, len(ids), len(vectors))
	}
	x.ids, x.vecs, x.mags, x.dim = nil, nil, nil, 0
	for i := range ids {
		if err := x.Add(ids[i], vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

// Add appends one item. The first item fixes the dimension.
func (x *Index) Add(id string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector for %s", domain.ErrInvalidInput, id)
	}
	if x.dim == 0 {
		x.dim = len(vec)
	}
	if len(vec) != x.dim {
		return fmt.Errorf("%w: vector %s has dimension %d, collection has %d",
			domain.ErrInvalidInput, id, len(vec), x.dim)
	}
	x.ids = append(x.ids, id)
	x.vecs = append(x.vecs, vec)
	x.mags = append(x.mags, magnitude(vec))
	return nil
}

// Len returns the number of items.
func (x *Index) Len() int {
	return len(x.ids)
}

// Dim returns the vector dimension, 0 when empty.
func (x *Index) Dim() int {
	return x.dim
}

// IDs returns the item ids in insertion order.
func (x *Index) IDs() []string {
	return append([]string(nil), x.ids...)
}

// Query returns up to k hits by descending cosine similarity.
// Equal scores keep insertion order. Zero vectors score 0.
func (x *Index) Query(query []float32, k int) ([]Hit, error) {
	if len(x.ids) == 0 {
		return []Hit{}, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query dimension %d, collection has %d", domain.ErrInvalidInput, len(query), x.dim)
	}

	qm := magnitude(query)
	hits := make([]Hit, len(x.ids))
	for i := range x.vecs {
		hits[i] = Hit{Pos: i, ID: x.ids[i]}
		if qm == 0 || x.mags[i] == 0 {
			continue
		}
		s := dot(query, x.vecs[i]) / (qm * x.mags[i])
		if !math.IsNaN(s) {
			hits[i].Score = s
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if k <= 0 || k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// MarshalBinary encodes dim(u32), n(u32), then per item idLen(u32), id
// bytes and dim float32 values, all little-endian.
func (x *Index) MarshalBinary() ([]byte, error) {
	size := 8
	for _, id := range x.ids {
		size += 4 + len(id) + 4*x.dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(x.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(x.ids)))
	for i, id := range x.ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		for _, v := range x.vecs[i] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out, nil
}

// UnmarshalBinary restores an index written by MarshalBinary.
func (x *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("vecindex: invalid data")
	}
	off := 0
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}

	dim := int(getU32())
	n := int(getU32())
	// Each item takes at least its length prefix and dim values.
	if n > 0 {
		if dim == 0 {
			return errors.New("vecindex: zero dimension")
		}
		if n > (len(data)-off)/(4+4*dim) {
			return fmt.Errorf("vecindex: header claims %d items of dimension %d in %d bytes", n, dim, len(data))
		}
	}
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := range n {
		if off+4 > len(data) {
			return errors.New("vecindex: truncated")
		}
		idLen := int(getU32())
		if off+idLen+4*dim > len(data) {
			return errors.New("vecindex: truncated item")
		}
		ids[i] = string(data[off : off+idLen])
		off += idLen
		vec := make([]float32, dim)
		for j := range dim {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[i] = vec
	}
	if off != len(data) {
		return fmt.Errorf("vecindex: %d trailing bytes", len(data)-off)
	}
	return x.Build(ids, vecs)
}

// EncodeEmbedding encodes a vector as little-endian float32 values.
func EncodeEmbedding(vec []float32) []byte {
	b := make([]byte, 0, len(vec)*4)
	for _, v := range vec {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// DecodeEmbedding decodes a blob produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vecindex: invalid embedding blob length %d", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
