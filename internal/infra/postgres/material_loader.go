package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mathstory-attempt-service/internal/domain"
)

// MaterialLoader loads quiz material JSONB from Postgres, as persisted by the
// quiz generation flow.
type MaterialLoader struct {
	pool *pgxpool.Pool
}

func NewMaterialLoader(pool *pgxpool.Pool) *MaterialLoader {
	return &MaterialLoader{pool: pool}
}

func (l *MaterialLoader) LoadMaterial(ctx context.Context, quizID string) (domain.QuizMaterial, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizMaterial{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizMaterial{}, fmt.Errorf("load material: %w", err)
	}
	var material domain.QuizMaterial
	if err := json.Unmarshal(raw, &material); err != nil {
		return domain.QuizMaterial{}, fmt.Errorf("unmarshal material: %w", err)
	}
	return material, nil
}
