package repository

import (
	"context"
	"errors"

	"tush00nka/beseda/internal/model"

	"gorm.io/gorm"
)

// UserQueryOptions — явные флаги запроса к хранилищу пользователей.
type UserQueryOptions struct {
	// WithDeleted включает в поиск мягко удалённые записи. Нужно при
	// повторном входе через OAuth, чтобы не завести дубликат пользователя.
	WithDeleted bool
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByGoogleID(ctx context.Context, googleID string, opts UserQueryOptions) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateOnlineStatus(ctx context.Context, userID uint, online bool) error
	SetAllOffline(ctx context.Context) error
	AddRefreshToken(ctx context.Context, userID uint, hash string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users, ids).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string, opts UserQueryOptions) (*model.User, error) {
	tx := r.db.WithContext(ctx)
	if opts.WithDeleted {
		tx = tx.Unscoped()
	}

	var user model.User
	if err := tx.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) UpdateOnlineStatus(ctx context.Context, userID uint, online bool) error {
	return translate(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_online", online).Error)
}

func (r *userRepository) SetAllOffline(ctx context.Context) error {
	return translate(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_online = ?", true).
		Update("is_online", false).Error)
}

func (r *userRepository) AddRefreshToken(ctx context.Context, userID uint, hash string) error {
	token := model.RefreshToken{UserID: userID, Hash: hash}
	return translate(r.db.WithContext(ctx).Create(&token).Error)
}

// translate приводит ошибки gorm к сентинелам репозитория.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
