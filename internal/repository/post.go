package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/inkwell-labs/postmind/internal/ai"
	"github.com/inkwell-labs/postmind/internal/domain"
)

// PostRepository persists posts and their derived AI artifacts.
type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	if err := domain.ValidatePost(p); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO posts (id, slug, title, body, status, summary, body_hash, ai_tags_generated, ai_category_generated, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Slug, p.Title, p.Body, p.Status, p.Summary, nullableString(p.BodyHash),
		p.AITagsGenerated, p.AICategoryGenerated, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	return r.getPost(ctx, r.pool, `WHERE id = $1`, id)
}

func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return r.getPost(ctx, r.pool, `WHERE slug = $1`, slug)
}

func (r *PostRepository) getPost(ctx context.Context, db dbtx, where string, arg any) (*domain.Post, error) {
	var p domain.Post
	var bodyHash *string
	err := db.QueryRow(ctx,
		`SELECT id, slug, title, body, status, summary, body_hash, ai_tags_generated, ai_category_generated, created_at, updated_at
		 FROM posts `+where,
		arg,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Status, &p.Summary, &bodyHash,
		&p.AITagsGenerated, &p.AICategoryGenerated, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	if bodyHash != nil {
		p.BodyHash = *bodyHash
	}

	if err := r.loadChunks(ctx, db, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) loadChunks(ctx context.Context, db dbtx, p *domain.Post) error {
	rows, err := db.Query(ctx,
		`SELECT content, embedding FROM post_chunks WHERE post_id = $1 ORDER BY chunk_index ASC`,
		p.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var content string
		var vec pgvector.Vector
		if err := rows.Scan(&content, &vec); err != nil {
			return err
		}
		p.ContentChunks = append(p.ContentChunks, content)
		p.Embeddings = append(p.Embeddings, vec.Slice())
	}
	return rows.Err()
}

// SaveChunks replaces a post's chunks and embeddings in one transaction,
// so they are written both-or-neither, and records the body hash the
// artifacts were derived from.
func (r *PostRepository) SaveChunks(ctx context.Context, postID string, chunks []string, embeddings [][]float32, bodyHash string) error {
	if len(embeddings) != len(chunks) {
		return domain.ErrEmbeddingMisaligned
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := replaceChunks(ctx, tx, postID, chunks, embeddings, bodyHash); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceChunks(ctx context.Context, db dbtx, postID string, chunks []string, embeddings [][]float32, bodyHash string) error {
	if _, err := db.Exec(ctx, `DELETE FROM post_chunks WHERE post_id = $1`, postID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, chunk := range chunks {
		_, err := db.Exec(ctx,
			`INSERT INTO post_chunks (post_id, chunk_index, content, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			postID, i, chunk, pgvector.NewVector(embeddings[i]), now,
		)
		if err != nil {
			return err
		}
	}

	_, err := db.Exec(ctx,
		`UPDATE posts SET body_hash = $1, updated_at = $2 WHERE id = $3`,
		bodyHash, now, postID,
	)
	return err
}

// PrepareRAG runs build under a per-post exclusive row lock and persists
// the result atomically. The lock is taken before the already-prepared
// check so two concurrent triggers cannot both pass it. It returns false
// without invoking build when the post already has chunks derived from
// the current body revision.
func (r *PostRepository) PrepareRAG(ctx context.Context, postID string, build func(post *domain.Post) (chunks []string, embeddings [][]float32, err error)) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var p domain.Post
	var bodyHash *string
	err = tx.QueryRow(ctx,
		`SELECT id, slug, title, body, status, summary, body_hash, ai_tags_generated, ai_category_generated, created_at, updated_at
		 FROM posts WHERE id = $1 FOR UPDATE`,
		postID,
	).Scan(&p.ID, &p.Slug, &p.Title, &p.Body, &p.Status, &p.Summary, &bodyHash,
		&p.AITagsGenerated, &p.AICategoryGenerated, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrPostNotFound
		}
		return false, err
	}
	if bodyHash != nil {
		p.BodyHash = *bodyHash
	}

	var chunkCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM post_chunks WHERE post_id = $1`, postID).Scan(&chunkCount); err != nil {
		return false, err
	}

	hash := ai.HashCleanBody(p.Body)
	if chunkCount > 0 && p.BodyHash == hash {
		return false, tx.Commit(ctx)
	}

	chunks, embeddings, err := build(&p)
	if err != nil {
		return false, err
	}

	if len(embeddings) != len(chunks) {
		return false, domain.ErrEmbeddingMisaligned
	}

	if err := replaceChunks(ctx, tx, postID, chunks, embeddings, hash); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// HasTags reports whether any tags are attached to the post.
func (r *PostRepository) HasTags(ctx context.Context, postID string) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM post_tags WHERE post_id = $1`, postID).Scan(&count)
	return count > 0, err
}

// AttachTags creates any missing tags, links them to the post, and marks
// the post's tags-generated flag, all in one transaction.
func (r *PostRepository) AttachTags(ctx context.Context, postID string, names []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		var tagID string
		err := tx.QueryRow(ctx,
			`INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			uuid.NewString(), name, time.Now().UTC(),
		).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, tagID,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE posts SET ai_tags_generated = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), postID,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListActiveCategories returns categories posts may be filed under.
func (r *PostRepository) ListActiveCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, is_active, created_at FROM categories WHERE is_active = TRUE ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// AttachCategory files the post under a category and marks the
// category-generated flag.
func (r *PostRepository) AttachCategory(ctx context.Context, postID, categoryID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO post_categories (post_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		postID, categoryID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE posts SET ai_category_generated = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), postID,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
