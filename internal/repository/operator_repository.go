package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/utils"
)

// OperatorRepo mirrors the 'operators' table.
type OperatorRepo struct {
	DB      *sql.DB
	dialect Dialect
}

func NewOperatorRepo(db *sql.DB, dialect Dialect) *OperatorRepo {
	return &OperatorRepo{DB: db, dialect: dialect}
}

// Create hashes the password and inserts an operator, returning its ID.
func (r *OperatorRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO operators (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if r.dialect.isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, unavailable("create operator", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an operator by normalized email.
func (r *OperatorRepo) GetByEmail(ctx context.Context, email string) (model.Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "email = ?", email)
}

// GetByID fetches an operator by id.
func (r *OperatorRepo) GetByID(ctx context.Context, id uint64) (model.Operator, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *OperatorRepo) getOne(ctx context.Context, where string, arg interface{}) (model.Operator, error) {
	var o model.Operator
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at FROM operators WHERE "+where+" LIMIT 1",
		arg).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.Role, &o.IsActive, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Operator{}, ErrOperatorNotFound
	}
	if err != nil {
		return model.Operator{}, unavailable("get operator", err)
	}
	return o, nil
}
