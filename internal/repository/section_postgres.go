package repository

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SectionRepository defines the interface for document section persistence
// and similarity search.
type SectionRepository interface {
	Insert(ctx context.Context, documentID, content string, embedding []float32) (*entity.DocumentSection, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentSection, error)
	SearchSimilar(ctx context.Context, embedding []float32, maxDistance float64, limit int) ([]entity.RetrievalCandidate, error)
}

var _ SectionRepository = &SectionPostgres{}

// SectionPostgres implements SectionRepository using PostgreSQL with the
// pgvector extension.
type SectionPostgres struct {
	db *pgxpool.Pool
}

func NewSectionPostgres(db *pgxpool.Pool) *SectionPostgres {
	return &SectionPostgres{db: db}
}

func (r *SectionPostgres) Insert(ctx context.Context, documentID, content string, embedding []float32) (*entity.DocumentSection, error) {
	docID, err := toPgUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	vec, err := encodeVector(embedding)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}

	id := uuid.New()
	_, err = r.db.Exec(ctx,
		`INSERT INTO document_sections (id, document_id, content, embedding)
		 VALUES ($1, $2, $3, $4::vector)`,
		pgtype.UUID{Bytes: id, Valid: true}, docID, content, vec,
	)
	if err != nil {
		return nil, fmt.Errorf("insert section: %w", err)
	}

	return &entity.DocumentSection{
		ID:         id.String(),
		DocumentID: documentID,
		Content:    content,
		Embedding:  embedding,
	}, nil
}

// ListByDocument returns a document's sections in insertion order. The
// embedding column is not read back; callers only need the text.
func (r *SectionPostgres) ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentSection, error) {
	docID, err := toPgUUID(documentID)
	if err != nil {
		return nil, fmt.Errorf("parse document ID: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, content FROM document_sections
		 WHERE document_id = $1 ORDER BY ctid`, docID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	sections := make([]*entity.DocumentSection, 0)
	for rows.Next() {
		var id, docID pgtype.UUID
		var content string
		if err := rows.Scan(&id, &docID, &content); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, &entity.DocumentSection{
			ID:         uuidToString(id),
			DocumentID: uuidToString(docID),
			Content:    content,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	return sections, nil
}

// SearchSimilar ranks sections by inner-product similarity against the
// query embedding. maxDistance caps the raw <#> value, so the filter
// only drops strongly dissimilar sections and the LIMIT does the real
// selection.
func (r *SectionPostgres) SearchSimilar(ctx context.Context, embedding []float32, maxDistance float64, limit int) ([]entity.RetrievalCandidate, error) {
	vec, err := encodeVector(embedding)
	if err != nil {
		return nil, fmt.Errorf("encode query embedding: %w", err)
	}

	// <#> is pgvector's negative inner product; negate it back so the
	// score reads as similarity (higher is better).
	rows, err := r.db.Query(ctx,
		`SELECT content, -(embedding <#> $1::vector) AS similarity
		 FROM document_sections
		 WHERE embedding <#> $1::vector < $2
		 ORDER BY embedding <#> $1::vector
		 LIMIT $3`,
		vec, maxDistance, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	candidates := make([]entity.RetrievalCandidate, 0, limit)
	for rows.Next() {
		var c entity.RetrievalCandidate
		if err := rows.Scan(&c.Content, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return candidates, nil
}
