package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/docqa/internal/db"
)

// CreateIndex creates an FT index over hashes. Returns db.ErrIndexExists
// if an index with the same name is already present.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args := buildCreateArgs(def)
	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists checks index presence via FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) []string {
	args := []string{def.Name, "ON", "HASH"}

	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}

	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		args = append(args, buildFieldArgs(f)...)
	}
	return args
}

func buildFieldArgs(f db.IndexField) []string {
	switch f.Type {
	case db.IndexFieldTag:
		return []string{f.Name, "TAG"}
	case db.IndexFieldNumeric:
		return []string{f.Name, "NUMERIC"}
	case db.IndexFieldVector:
		metric := f.VectorDistance
		if metric == "" {
			metric = db.DistanceCosine
		}
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.VectorDim),
			"DISTANCE_METRIC", string(metric),
			"M", strconv.Itoa(f.VectorM),
			"EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct),
		}
		// HNSW takes the attribute count before the attribute list.
		args := []string{f.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs))}
		return append(args, attrs...)
	default:
		return nil
	}
}
