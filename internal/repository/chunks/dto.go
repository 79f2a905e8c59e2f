package chunks

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// Hash field names of a stored chunk.
const (
	fieldText        = "text"
	fieldSource      = "source"
	fieldChunkIndex  = "chunk_index"
	fieldTotalChunks = "total_chunks"
	fieldIngestedAt  = "ingested_at"
	fieldVector      = "vector"
)

// buildHashFields flattens one chunk into a map[string]string for HSET.
func buildHashFields(
	filename string, index, total int, text string, vector []float32, ingestedAt time.Time,
) map[string]string {
	return map[string]string{
		fieldText:        text,
		fieldSource:      filename,
		fieldChunkIndex:  strconv.Itoa(index),
		fieldTotalChunks: strconv.Itoa(total),
		fieldIngestedAt:  ingestedAt.UTC().Format(time.RFC3339),
		fieldVector:      vectorToBytes(vector),
	}
}

// parseHashFields converts a search hit back into a domain match.
// Malformed numeric fields degrade to zero values rather than failing
// the whole query.
func parseHashFields(entry db.SearchEntry) domain.QueryMatch {
	m := domain.QueryMatch{
		Score:  entry.Score,
		Text:   entry.Fields[fieldText],
		Source: entry.Fields[fieldSource],
	}
	if v, err := strconv.Atoi(entry.Fields[fieldChunkIndex]); err == nil {
		m.ChunkIndex = v
	}
	if v, err := strconv.Atoi(entry.Fields[fieldTotalChunks]); err == nil {
		m.TotalChunks = v
	}
	if t, err := time.Parse(time.RFC3339, entry.Fields[fieldIngestedAt]); err == nil {
		m.IngestedAt = t
	}
	return m
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
