package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senpaisearch/apiserver/types"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// CharacterRepository handles persistence for characters.
type CharacterRepository struct {
	db *sql.DB
}

func NewCharacterRepository(db *sql.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `id, name, age, anime, hierarchy, abilities, notable_moments, portrait_key, user_id, created_at, updated_at`

func scanCharacter(row *sql.Row) (types.Character, error) {
	var ch types.Character
	err := row.Scan(
		&ch.ID,
		&ch.Name,
		&ch.Age,
		&ch.Anime,
		&ch.Hierarchy,
		&ch.Abilities,
		&ch.NotableMoments,
		&ch.PortraitKey,
		&ch.UserID,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Character{}, ErrNotFound
		}
		return types.Character{}, err
	}
	return ch, nil
}

func (r *CharacterRepository) Get(ctx context.Context, id int) (types.Character, error) {
	const query = `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE id = $1`
	return scanCharacter(r.db.QueryRowContext(ctx, query, id))
}

// Search lists characters matching the filter. A zero ownerID searches the
// whole catalog; a non-zero ownerID restricts rows to that owner.
func (r *CharacterRepository) Search(ctx context.Context, ownerID int, filter types.CharacterFilter) ([]types.Character, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if ownerID != 0 {
		args = append(args, ownerID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Anime != "" {
		args = append(args, "%"+filter.Anime+"%")
		conditions = append(conditions, fmt.Sprintf("anime ILIKE $%d", len(args)))
	}
	if filter.Hierarchy != "" {
		args = append(args, "%"+filter.Hierarchy+"%")
		conditions = append(conditions, fmt.Sprintf("hierarchy ILIKE $%d", len(args)))
	}

	limit := filter.Limit
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	args = append(args, limit)

	query := `SELECT ` + characterColumns + ` FROM characters`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	characters := make([]types.Character, 0, limit)
	for rows.Next() {
		var ch types.Character
		if err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.Age,
			&ch.Anime,
			&ch.Hierarchy,
			&ch.Abilities,
			&ch.NotableMoments,
			&ch.PortraitKey,
			&ch.UserID,
			&ch.CreatedAt,
			&ch.UpdatedAt,
		); err != nil {
			return nil, err
		}
		characters = append(characters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return characters, nil
}

func (r *CharacterRepository) Create(ctx context.Context, ch types.Character) (types.Character, error) {
	now := time.Now()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	const query = `
		INSERT INTO characters (name, age, anime, hierarchy, abilities, notable_moments, portrait_key, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		ch.Name,
		ch.Age,
		ch.Anime,
		ch.Hierarchy,
		ch.Abilities,
		ch.NotableMoments,
		ch.PortraitKey,
		ch.UserID,
		ch.CreatedAt,
		ch.UpdatedAt,
	).Scan(&ch.ID); err != nil {
		return types.Character{}, err
	}
	return ch, nil
}

func (r *CharacterRepository) Update(ctx context.Context, ch types.Character) (types.Character, error) {
	ch.UpdatedAt = time.Now()

	const query = `
		UPDATE characters
		SET name = $1,
			age = $2,
			anime = $3,
			hierarchy = $4,
			abilities = $5,
			notable_moments = $6,
			portrait_key = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		ch.Name,
		ch.Age,
		ch.Anime,
		ch.Hierarchy,
		ch.Abilities,
		ch.NotableMoments,
		ch.PortraitKey,
		ch.UpdatedAt,
		ch.ID,
	)
	if err != nil {
		return types.Character{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Character{}, err
	}
	if affected == 0 {
		return types.Character{}, ErrNotFound
	}
	return ch, nil
}

func (r *CharacterRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM characters WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
