package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/mewayz/entitystore/internal/config"
	"github.com/mewayz/entitystore/internal/domain/entity"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/postgres"
	"github.com/mewayz/entitystore/internal/types"
)

const entityColumns = `id, display_id, kind, owner_id, attributes, status, created_at, updated_at`

type entityRepository struct {
	db      *postgres.DB
	cfg     *config.Configuration
	logger  *logger.Logger
	timeout time.Duration
}

func NewEntityRepository(db *postgres.DB, cfg *config.Configuration, logger *logger.Logger) entity.Repository {
	return &entityRepository{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		timeout: cfg.EntityStore.RepositoryTimeout,
	}
}

func (r *entityRepository) Insert(ctx context.Context, e *entity.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
	INSERT INTO entities (` + entityColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	attributesJSON, err := json.Marshal(e.Attributes)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("marshal attributes").
			Mark(ierr.ErrDatabase)
	}

	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.DisplayID,
		e.Kind,
		e.OwnerID,
		attributesJSON,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return r.translateErr(err, "insert entity")
	}

	return nil
}

func (r *entityRepository) FindByID(ctx context.Context, kind, id string) (*entity.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
	SELECT ` + entityColumns + `
	FROM entities
	WHERE kind = $1 AND id = $2
	`

	row := r.db.QueryRowContext(ctx, query, kind, id)
	e, err := scanEntity(row)
	if err != nil {
		return nil, r.translateErr(err, "get entity")
	}

	return e, nil
}

func (r *entityRepository) FindMany(ctx context.Context, filter *types.EntityFilter) ([]*entity.Entity, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	where, args := buildWhere(filter)

	order := "DESC"
	if filter.GetOrder() == types.OrderAsc {
		order = "ASC"
	}

	limit := filter.GetLimit()
	if limit > r.cfg.EntityStore.MaxPageSize {
		limit = r.cfg.EntityStore.MaxPageSize
	}

	args = append(args, limit, filter.GetOffset())
	query := fmt.Sprintf(`
	SELECT `+entityColumns+`
	FROM entities
	WHERE %s
	ORDER BY created_at %s, id %s
	LIMIT $%d OFFSET $%d
	`, where, order, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, r.translateErr(err, "query entities")
	}
	defer rows.Close()

	var result []*entity.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, r.translateErr(err, "scan entity")
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, r.translateErr(err, "iterate entities")
	}

	return result, total, nil
}

func (r *entityRepository) ReplaceFields(ctx context.Context, kind, id string, patch entity.FieldPatch) (*entity.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Attributes are merged server-side with the JSONB concat operator so a
	// partial patch never clobbers fields it does not mention.
	query := `
	UPDATE entities
	SET attributes = attributes || $3::jsonb,
		status = COALESCE($4, status),
		updated_at = $5
	WHERE kind = $1 AND id = $2
	RETURNING ` + entityColumns + `
	`

	// nil attributes must become an empty object, not JSON null, so the
	// concat below is a no-op for status-only patches
	attributes := patch.Attributes
	if attributes == nil {
		attributes = types.Attributes{}
	}
	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("marshal attribute patch").
			Mark(ierr.ErrDatabase)
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	row := r.db.QueryRowContext(ctx, query, kind, id, attributesJSON, status, patch.UpdatedAt)
	e, err := scanEntity(row)
	if err != nil {
		return nil, r.translateErr(err, "update entity")
	}

	return e, nil
}

func (r *entityRepository) Remove(ctx context.Context, kind, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `DELETE FROM entities WHERE kind = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, kind, id)
	if err != nil {
		return false, r.translateErr(err, "remove entity")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, r.translateErr(err, "remove entity rows affected")
	}

	return affected > 0, nil
}

func (r *entityRepository) Count(ctx context.Context, filter *types.EntityFilter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	where, args := buildWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM entities WHERE %s`, where)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, r.translateErr(err, "count entities")
	}

	return count, nil
}

// buildWhere renders the filter into a WHERE clause. Deleted entities are
// excluded unless the filter explicitly includes them or asks for the
// deleted status itself.
func buildWhere(filter *types.EntityFilter) (string, []interface{}) {
	conditions := []string{"kind = $1"}
	args := []interface{}{filter.Kind}

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	if filter.QueryFilter != nil && filter.QueryFilter.Status != nil {
		args = append(args, *filter.QueryFilter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	} else if !filter.IncludeDeleted {
		args = append(args, types.StatusDeleted)
		conditions = append(conditions, fmt.Sprintf("status != $%d", len(args)))
	}

	if filter.CreatedAfter != nil {
		args = append(args, *filter.CreatedAfter)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row rowScanner) (*entity.Entity, error) {
	var e entity.Entity
	var attributesJSON []byte

	err := row.Scan(
		&e.ID,
		&e.DisplayID,
		&e.Kind,
		&e.OwnerID,
		&attributesJSON,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attributesJSON) > 0 {
		if err := json.Unmarshal(attributesJSON, &e.Attributes); err != nil {
			return nil, err
		}
	}

	return &e, nil
}

// translateErr maps driver errors into the repository's error taxonomy so
// no raw driver error escapes this package.
func (r *entityRepository) translateErr(err error, op string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ierr.WithError(err).
			WithHint("Entity not found").
			Mark(ierr.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		r.logger.Warnw("storage operation timed out", "op", op, "error", err)
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Storage is temporarily unavailable").
			Mark(ierr.ErrStorageUnavailable)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		r.logger.Warnw("storage connection failure", "op", op, "error", err)
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Storage is temporarily unavailable").
			Mark(ierr.ErrStorageUnavailable)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("Entity already exists").
				Mark(ierr.ErrAlreadyExists)
		case pqErr.Code.Class() == "08": // connection exception
			r.logger.Warnw("storage connection failure", "op", op, "error", err)
			return ierr.WithError(err).
				WithMessage(op).
				WithHint("Storage is temporarily unavailable").
				Mark(ierr.ErrStorageUnavailable)
		}
	}

	r.logger.Errorw("storage operation failed", "op", op, "error", err)
	return ierr.WithError(err).
		WithMessage(op).
		Mark(ierr.ErrDatabase)
}
