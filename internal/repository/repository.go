// Package repository implements the persistence layer over gorm. Every
// repository is bound to a *gorm.DB handle, which may be a transaction;
// services build a fresh set per transaction with WithTx.
package repository

import (
	"context"

	"github.com/diewo77/go-pos/internal/apperr"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 200
)

// Page is one slice of an ordered listing plus the total row count.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// Pages returns the number of pages needed for Total rows.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// NormalizePage clamps page to >= 1 and perPage to [1, MaxPerPage],
// substituting DefaultPerPage for non-positive values.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// Repository is the CRUD surface shared by all entities. Get returns
// (nil, nil) when no row matches.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Get(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) (bool, error)
	Paginate(ctx context.Context, page, perPage int) (Page[T], error)
	Count(ctx context.Context) (int64, error)
}

type gormRepository[T any] struct {
	db       *gorm.DB
	notFound error
	order    string
}

func newGormRepository[T any](db *gorm.DB, notFound error, order string) *gormRepository[T] {
	return &gormRepository[T]{db: db, notFound: notFound, order: order}
}

func (r *gormRepository[T]) Create(ctx context.Context, entity *T) error {
	return apperr.FromDB(r.db.WithContext(ctx).Create(entity).Error, nil)
}

func (r *gormRepository[T]) Get(ctx context.Context, id uint) (*T, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// first returns the first matching row, or nil when none matches.
func (r *gormRepository[T]) first(q *gorm.DB, cond string, args ...any) (*T, error) {
	var entity T
	err := q.Where(cond, args...).First(&entity).Error
	if err == nil {
		return &entity, nil
	}
	if err = apperr.FromDB(err, r.notFound); apperr.IsNotFound(err) {
		return nil, nil
	}
	return nil, err
}

func (r *gormRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	err := r.db.WithContext(ctx).Order(r.order).Find(&items).Error
	return items, apperr.FromDB(err, nil)
}

func (r *gormRepository[T]) Update(ctx context.Context, entity *T) error {
	return apperr.FromDB(r.db.WithContext(ctx).Save(entity).Error, nil)
}

func (r *gormRepository[T]) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return false, apperr.FromDB(res.Error, nil)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository[T]) Paginate(ctx context.Context, page, perPage int) (Page[T], error) {
	return r.paginate(r.db.WithContext(ctx), page, perPage)
}

// paginate counts and slices rows matching q.
func (r *gormRepository[T]) paginate(q *gorm.DB, page, perPage int) (Page[T], error) {
	page, perPage = NormalizePage(page, perPage)
	out := Page[T]{Page: page, PerPage: perPage}
	if err := q.Session(&gorm.Session{}).Model(new(T)).Count(&out.Total).Error; err != nil {
		return out, apperr.FromDB(err, nil)
	}
	err := q.Session(&gorm.Session{}).
		Order(r.order).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&out.Items).Error
	return out, apperr.FromDB(err, nil)
}

func (r *gormRepository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, apperr.FromDB(err, nil)
}

// Repositories bundles every repository bound to the same handle.
type Repositories struct {
	Products   ProductRepository
	Invoices   InvoiceRepository
	Categories CategoryRepository
	Customers  CustomerRepository
	Users      UserRepository
	Movements  StockMovementRepository
}

// New binds all repositories to db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:   NewProductRepository(db),
		Invoices:   NewInvoiceRepository(db),
		Categories: NewCategoryRepository(db),
		Customers:  NewCustomerRepository(db),
		Users:      NewUserRepository(db),
		Movements:  NewStockMovementRepository(db),
	}
}

// WithTx runs fn in a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func WithTx(ctx context.Context, db *gorm.DB, fn func(repos *Repositories) error) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
	return apperr.FromDB(err, nil)
}
