package swap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/slot-swap-backend/internal/db"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	// GetForUpdate loads the bare request and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*Request, error)
	// GetDetailed loads the request with both slots and both user summaries.
	GetDetailed(ctx context.Context, id string) (*Request, error)
	// HasPendingBetween reports whether a PENDING request couples the two slots in either direction.
	HasPendingBetween(ctx context.Context, slotA, slotB string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	ListByResponder(ctx context.Context, userID string) ([]*Request, error)
	ListByRequester(ctx context.Context, userID string) ([]*Request, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Slot ids read as "" once the slot has been deleted.
var requestColumns = []string{
	"r.id", "COALESCE(r.my_slot_id::text, '')", "COALESCE(r.their_slot_id::text, '')", "r.from_user_id", "r.to_user_id", "r.status", "r.created_at", "r.updated_at",
}

var detailedColumns = append(append([]string{}, requestColumns...),
	"ms.id", "ms.title", "ms.start_time", "ms.end_time", "ms.status", "ms.owner_id", "ms.created_at", "ms.updated_at",
	"ts.id", "ts.title", "ts.start_time", "ts.end_time", "ts.status", "ts.owner_id", "ts.created_at", "ts.updated_at",
	"fu.email", "COALESCE(fu.display_name, fu.email)",
	"tu.email", "COALESCE(tu.display_name, tu.email)",
)

func detailedSelect() squirrel.SelectBuilder {
	return psql.Select(detailedColumns...).
		From("public.swap_requests r").
		LeftJoin("public.slots ms ON r.my_slot_id = ms.id").
		LeftJoin("public.slots ts ON r.their_slot_id = ts.id").
		Join("public.users fu ON r.from_user_id = fu.id").
		Join("public.users tu ON r.to_user_id = tu.id")
}

// joinedSlot receives a LEFT JOINed slot. Every column is NULL when the slot is gone.
type joinedSlot struct {
	ID        *string
	Title     *string
	StartTime *time.Time
	EndTime   *time.Time
	Status    *slot.Status
	OwnerID   *string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (j *joinedSlot) dest() []any {
	return []any{&j.ID, &j.Title, &j.StartTime, &j.EndTime, &j.Status, &j.OwnerID, &j.CreatedAt, &j.UpdatedAt}
}

func (j *joinedSlot) slot() *slot.Slot {
	if j.ID == nil {
		return nil
	}
	return &slot.Slot{
		ID:        *j.ID,
		Title:     *j.Title,
		StartTime: *j.StartTime,
		EndTime:   *j.EndTime,
		Status:    *j.Status,
		OwnerID:   *j.OwnerID,
		CreatedAt: *j.CreatedAt,
		UpdatedAt: *j.UpdatedAt,
	}
}

func scanDetailed(row pgx.Row) (*Request, error) {
	var (
		r         Request
		mine      joinedSlot
		theirs    joinedSlot
		requester user.Summary
		responder user.Summary
	)
	dest := []any{&r.ID, &r.OfferedSlotID, &r.RequestedSlotID, &r.RequesterID, &r.ResponderID, &r.Status, &r.CreatedAt, &r.UpdatedAt}
	dest = append(dest, mine.dest()...)
	dest = append(dest, theirs.dest()...)
	dest = append(dest, &requester.Email, &requester.Name, &responder.Email, &responder.Name)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	requester.ID = r.RequesterID
	responder.ID = r.ResponderID
	r.OfferedSlot = mine.slot()
	r.RequestedSlot = theirs.slot()
	r.Requester = &requester
	r.Responder = &responder
	return &r, nil
}

func (repo *pgxRepository) Create(ctx context.Context, r *Request) error {
	query, args, err := psql.Insert("public.swap_requests").
		Columns("my_slot_id", "their_slot_id", "from_user_id", "to_user_id", "status").
		Values(r.OfferedSlotID, r.RequestedSlotID, r.RequesterID, r.ResponderID, r.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create swap request query failed: %w", err)
	}

	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return fmt.Errorf("create swap request failed: %w", err)
	}
	return nil
}

func (repo *pgxRepository) GetForUpdate(ctx context.Context, id string) (*Request, error) {
	query, args, err := psql.Select(requestColumns...).
		From("public.swap_requests r").
		Where(squirrel.Eq{"r.id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock swap request query failed: %w", err)
	}

	var r Request
	err = db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.OfferedSlotID, &r.RequestedSlotID, &r.RequesterID, &r.ResponderID, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock swap request failed: %w", err)
	}
	return &r, nil
}

func (repo *pgxRepository) GetDetailed(ctx context.Context, id string) (*Request, error) {
	query, args, err := detailedSelect().
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get swap request query failed: %w", err)
	}

	r, err := scanDetailed(db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get swap request failed: %w", err)
	}
	return r, nil
}

func (repo *pgxRepository) HasPendingBetween(ctx context.Context, slotA, slotB string) (bool, error) {
	sub, args, err := psql.Select("1").
		From("public.swap_requests").
		Where(squirrel.Eq{"status": StatusPending}).
		Where(squirrel.Or{
			squirrel.Eq{"my_slot_id": slotA, "their_slot_id": slotB},
			squirrel.Eq{"my_slot_id": slotB, "their_slot_id": slotA},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build pending coupling query failed: %w", err)
	}

	var exists bool
	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending coupling failed: %w", err)
	}
	return exists, nil
}

func (repo *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	query, args, err := psql.Update("public.swap_requests").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update swap request query failed: %w", err)
	}

	ct, err := db.Conn(ctx, repo.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update swap request failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *pgxRepository) ListByResponder(ctx context.Context, userID string) ([]*Request, error) {
	return repo.list(ctx, squirrel.Eq{"r.to_user_id": userID})
}

func (repo *pgxRepository) ListByRequester(ctx context.Context, userID string) ([]*Request, error) {
	return repo.list(ctx, squirrel.Eq{"r.from_user_id": userID})
}

func (repo *pgxRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*Request, error) {
	query, args, err := detailedSelect().
		Where(where).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list swap requests query failed: %w", err)
	}

	rows, err := db.Conn(ctx, repo.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list swap requests failed: %w", err)
	}
	defer rows.Close()

	requests := make([]*Request, 0)
	for rows.Next() {
		r, err := scanDetailed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request failed: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap requests failed: %w", err)
	}
	return requests, nil
}
