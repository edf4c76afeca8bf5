package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/slot-swap-backend/internal/db"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

// Repository is the storage of slots.
// LockForUpdate, SetStatus and TransferOwnership are unchecked primitives meant to run
// inside a unit of work owned by the swap negotiator.
type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	Update(ctx context.Context, s *Slot) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Slot, error)
	ListSwappable(ctx context.Context, excludeOwnerID string) ([]*Slot, error)

	// HasPendingSwap reports whether a PENDING swap request references the slot on either side.
	HasPendingSwap(ctx context.Context, slotID string) (bool, error)

	// LockForUpdate loads the given slots with row locks taken in id order.
	// Missing ids are absent from the result.
	LockForUpdate(ctx context.Context, ids ...string) (map[string]*Slot, error)
	SetStatus(ctx context.Context, id string, status Status) error
	TransferOwnership(ctx context.Context, id, newOwnerID string, status Status) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var slotColumns = []string{
	"s.id", "s.title", "s.start_time", "s.end_time", "s.status", "s.owner_id", "s.created_at", "s.updated_at",
}

func scanSlot(row pgx.Row, extra ...any) (*Slot, error) {
	var s Slot
	dest := append([]any{
		&s.ID, &s.Title, &s.StartTime, &s.EndTime, &s.Status, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgxRepository) Create(ctx context.Context, s *Slot) error {
	query, args, err := psql.Insert("public.slots").
		Columns("title", "start_time", "end_time", "status", "owner_id").
		Values(s.Title, s.StartTime, s.EndTime, s.Status, s.OwnerID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create slot query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("create slot failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	query, args, err := psql.Select(slotColumns...).
		From("public.slots s").
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get slot query failed: %w", err)
	}

	s, err := scanSlot(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get slot failed: %w", err)
	}
	return s, nil
}

func (r *pgxRepository) Update(ctx context.Context, s *Slot) error {
	query, args, err := psql.Update("public.slots").
		Set("title", s.Title).
		Set("start_time", s.StartTime).
		Set("end_time", s.EndTime).
		Set("status", s.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update slot query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update slot failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete slot query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete slot failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Slot, error) {
	query, args, err := psql.Select(slotColumns...).
		From("public.slots s").
		Where(squirrel.Eq{"s.owner_id": ownerID}).
		OrderBy("s.start_time ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slots query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	slots := make([]*Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot failed: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots failed: %w", err)
	}
	return slots, nil
}

func (r *pgxRepository) ListSwappable(ctx context.Context, excludeOwnerID string) ([]*Slot, error) {
	query, args, err := psql.Select(append(slotColumns, "u.email", "COALESCE(u.display_name, u.email)")...).
		From("public.slots s").
		Join("public.users u ON s.owner_id = u.id").
		Where(squirrel.Eq{"s.status": StatusSwappable}).
		Where(squirrel.NotEq{"s.owner_id": excludeOwnerID}).
		OrderBy("s.start_time ASC", "s.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list swappable slots query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list swappable slots failed: %w", err)
	}
	defer rows.Close()

	slots := make([]*Slot, 0)
	for rows.Next() {
		var owner user.Summary
		s, err := scanSlot(rows, &owner.Email, &owner.Name)
		if err != nil {
			return nil, fmt.Errorf("scan swappable slot failed: %w", err)
		}
		owner.ID = s.OwnerID
		s.Owner = &owner
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swappable slots failed: %w", err)
	}
	return slots, nil
}

func (r *pgxRepository) HasPendingSwap(ctx context.Context, slotID string) (bool, error) {
	sub, args, err := psql.Select("1").
		From("public.swap_requests").
		Where(squirrel.Eq{"status": "PENDING"}).
		Where(squirrel.Or{
			squirrel.Eq{"my_slot_id": slotID},
			squirrel.Eq{"their_slot_id": slotID},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build pending swap query failed: %w", err)
	}

	var exists bool
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending swap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) LockForUpdate(ctx context.Context, ids ...string) (map[string]*Slot, error) {
	query, args, err := psql.Select(slotColumns...).
		From("public.slots s").
		Where(squirrel.Eq{"s.id": ids}).
		OrderBy("s.id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock slots query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock slots failed: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]*Slot, len(ids))
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locked slot failed: %w", err)
		}
		locked[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locked slots failed: %w", err)
	}
	return locked, nil
}

func (r *pgxRepository) SetStatus(ctx context.Context, id string, status Status) error {
	query, args, err := psql.Update("public.slots").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set slot status query failed: %w", err)
	}
	return r.execOne(ctx, query, args, "set slot status")
}

func (r *pgxRepository) TransferOwnership(ctx context.Context, id, newOwnerID string, status Status) error {
	query, args, err := psql.Update("public.slots").
		Set("owner_id", newOwnerID).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transfer slot query failed: %w", err)
	}
	return r.execOne(ctx, query, args, "transfer slot")
}

func (r *pgxRepository) execOne(ctx context.Context, query string, args []any, op string) error {
	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
