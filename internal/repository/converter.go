package repository

import (
	"fmt"
	"strconv"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var id pgtype.UUID
	var name string
	var createdAt pgtype.Timestamptz

	if err := row.Scan(&id, &name, &createdAt); err != nil {
		return nil, err
	}

	return &entity.Document{
		ID:        uuidToString(id),
		Name:      name,
		CreatedAt: createdAt.Time,
	}, nil
}

func toPgUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidToString(id pgtype.UUID) string {
	return uuid.UUID(id.Bytes).String()
}

// encodeVector renders an embedding as a pgvector literal, e.g.
// [0.1,0.2,0.3].
func encodeVector(embedding []float32) (string, error) {
	if len(embedding) != entity.EmbeddingDimensions {
		return "", fmt.Errorf("%w: expected %d dimensions, got %d",
			entity.ErrInvalidVector, entity.EmbeddingDimensions, len(embedding))
	}

	buf := make([]byte, 0, len(embedding)*10)
	buf = append(buf, '[')
	for i, v := range embedding {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
	}
	buf = append(buf, ']')
	return string(buf), nil
}
