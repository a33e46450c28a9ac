package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cond is a SQL condition and its bound arguments.
type Cond struct {
	Expr string
	Args []any
}

func Where(expr string, args ...any) Cond {
	return Cond{Expr: expr, Args: args}
}

// Order is a whitelisted column (optionally table-qualified) and direction.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a read against a single model. Where conditions are
// AND-combined; AnyOf conditions are OR-combined into one group that is
// ANDed with the rest. Zero Limit/Offset means unbounded.
type Query struct {
	Where   []Cond
	AnyOf   []Cond
	Preload []string
	Order   []Order
	Limit   int
	Offset  int
}

// DataStore is the data-access capability set the repositories depend on.
type DataStore interface {
	Find(ctx context.Context, dest any, q Query) error
	First(ctx context.Context, dest any, q Query) error
	Count(ctx context.Context, model any, q Query) (int64, error)
	Create(ctx context.Context, value any) error
	Save(ctx context.Context, value any) error
	Delete(ctx context.Context, value any) error
	AppendAssociation(ctx context.Context, owner any, name string, values any) error
	ClearAssociation(ctx context.Context, owner any, name string) error
	// Transaction runs fn in a unit of work and commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx DataStore) error) error
}

// GormStore implements DataStore on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) filtered(ctx context.Context, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx)
	for _, c := range q.Where {
		tx = tx.Where(c.Expr, c.Args...)
	}
	if len(q.AnyOf) > 0 {
		group := s.db.Where(q.AnyOf[0].Expr, q.AnyOf[0].Args...)
		for _, c := range q.AnyOf[1:] {
			group = group.Or(c.Expr, c.Args...)
		}
		tx = tx.Where(group)
	}
	return tx
}

func (s *GormStore) query(ctx context.Context, q Query) *gorm.DB {
	tx := s.filtered(ctx, q)
	for _, p := range q.Preload {
		tx = tx.Preload(p)
	}
	for _, o := range q.Order {
		if o.Desc {
			tx = tx.Order(o.Column + " DESC")
		} else {
			tx = tx.Order(o.Column + " ASC")
		}
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return tx
}

func (s *GormStore) Find(ctx context.Context, dest any, q Query) error {
	return s.query(ctx, q).Find(dest).Error
}

func (s *GormStore) First(ctx context.Context, dest any, q Query) error {
	// Find keeps caller ordering intact and, unlike Take, does not log a miss.
	res := s.query(ctx, q).Limit(1).Find(dest)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (s *GormStore) Count(ctx context.Context, model any, q Query) (int64, error) {
	var n int64
	err := s.filtered(ctx, q).Model(model).Count(&n).Error
	return n, err
}

func (s *GormStore) Create(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).Create(value).Error
}

func (s *GormStore) Save(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(value).Error
}

func (s *GormStore) Delete(ctx context.Context, value any) error {
	return s.db.WithContext(ctx).Delete(value).Error
}

func (s *GormStore) AppendAssociation(ctx context.Context, owner any, name string, values any) error {
	return s.db.WithContext(ctx).Model(owner).Association(name).Append(values)
}

func (s *GormStore) ClearAssociation(ctx context.Context, owner any, name string) error {
	return s.db.WithContext(ctx).Model(owner).Association(name).Clear()
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx DataStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
