package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/qpaydev/recharge/internal/adapter/storage"
	"github.com/qpaydev/recharge/internal/core/domain"
)

type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	statement := r.db.QueryBuilder.Insert("users").
		Columns("id", "login", "password", "balance", "inviter_id", "promotion_rate", "created_at").
		Values(user.ID, user.Login, user.Password, user.Balance,
			user.InviterID, user.PromotionRate, user.CreatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"login": login})
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *Repository) getUser(ctx context.Context, where sq.Eq) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select("id", "login", "password", "balance", "inviter_id", "promotion_rate", "created_at").
		From("users").
		Where(where)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Login,
		&user.Password,
		&user.Balance,
		&user.InviterID,
		&user.PromotionRate,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	statement := r.db.QueryBuilder.Insert("orders").
		Columns("id", "user_id", "trade_no", "price", "status", "created_at").
		Values(order.ID, order.UserID, order.TradeNo, order.Price, order.Status, order.CreatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, sq.Eq{"id": id})
}

func (r *Repository) ReadOrderByTradeNo(ctx context.Context, tradeNo string) (*domain.Order, error) {
	return r.getOrder(ctx, sq.Eq{"trade_no": tradeNo})
}

func (r *Repository) getOrder(ctx context.Context, where sq.Eq) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select("id", "user_id", "trade_no", "price", "status", "created_at").
		From("orders").
		Where(where)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order := domain.Order{}

	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.UserID,
		&order.TradeNo,
		&order.Price,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select("id", "user_id", "trade_no", "price", "status", "created_at").
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.TradeNo,
			&order.Price,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// TryTransitionOrder is the idempotency primitive: a single
// conditional UPDATE whose row count tells whether this caller won the
// transition. Concurrent duplicates for the same order see zero rows.
func (r *Repository) TryTransitionOrder(ctx context.Context, id uuid.UUID,
	from domain.PaymentStatus, to domain.PaymentStatus) (bool, error) {
	statement := r.db.QueryBuilder.Update("orders").
		Set("status", to).
		Where(sq.Eq{"id": id, "status": from})

	sql, args, err := statement.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// CreditBalance applies the increment in SQL so concurrent credits to
// the same user never lose updates.
func (r *Repository) CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) error {
	statement := r.db.QueryBuilder.Update("users").
		Set("balance", sq.Expr("balance + ?", amount)).
		Where(sq.Eq{"id": userID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDataNotFound
	}

	return nil
}
