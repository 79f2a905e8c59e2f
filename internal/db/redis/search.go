package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docqa/internal/db"
)

const scoreField = "__vector_score"

// SearchKNN runs a K-nearest-neighbors vector query via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	query := fmt.Sprintf("*=>[KNN %d @vector $BLOB AS %s]", q.K, scoreField)

	args := []string{q.IndexName, query}
	if len(q.ReturnFields) > 0 {
		ret := append([]string{scoreField}, q.ReturnFields...)
		args = append(args, "RETURN", strconv.Itoa(len(ret)))
		args = append(args, ret...)
	}
	args = append(args,
		"SORTBY", scoreField,
		"PARAMS", "2", "BLOB", rueidis.BinaryString(vectorToBytes(q.Vector)),
		"LIMIT", "0", strconv.Itoa(q.K),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	res := s.do(ctx, cmd)
	if err := res.Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	arr, err := res.ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNResult(arr)
}

// parseKNNResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, [field, value, ...], key2, [field, value, ...], ...]
func parseKNNResult(arr []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(arr) == 0 {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("empty reply")}
	}

	total, err := arr[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse total: %w", err)}
	}

	result := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(arr); i += 2 {
		key, err := arr[i].ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse key: %w", err)}
		}

		fieldArr, err := arr[i+1].ToArray()
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse fields for %s: %w", key, err)}
		}
		fields, err := parseFieldPairs(fieldArr)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse fields for %s: %w", key, err)}
		}

		entry := db.SearchEntry{Key: key, Fields: fields}
		if raw, ok := fields[scoreField]; ok {
			dist, perr := strconv.ParseFloat(raw, 64)
			if perr != nil {
				return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse score for %s: %w", key, perr)}
			}
			// cosine distance -> similarity
			entry.Score = math.Max(0, 1.0-dist)
			delete(fields, scoreField)
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func parseFieldPairs(arr []rueidis.RedisMessage) (map[string]string, error) {
	fields := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, err := arr[i].ToString()
		if err != nil {
			return nil, err
		}
		v, err := arr[i+1].ToString()
		if err != nil {
			return nil, err
		}
		fields[k] = v
	}
	return fields, nil
}

// vectorToBytes serializes float32s to little-endian bytes for FT vector blobs.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
