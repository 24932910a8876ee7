package service

import (
	"context"
	"errors"

	"tush00nka/beseda/internal/model"
	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// FindOrCreateOAuthUser апсертит пользователя по внешнему subject id.
// Ищем с учётом мягко удалённых, чтобы повторный вход не плодил дубликаты.
// При повторном входе обновляется только аватар, остальной профиль не трогаем.
func (s *userService) FindOrCreateOAuthUser(ctx context.Context, profile OAuthProfile) (*model.User, error) {
	if profile.GoogleID == "" {
		return nil, errors.New("oauth profile subject id is required")
	}
	if profile.Email == "" {
		return nil, errors.New("oauth profile email is required")
	}

	user, err := s.userRepo.FindByGoogleID(ctx, profile.GoogleID, repository.UserQueryOptions{WithDeleted: true})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		user = &model.User{
			Email:     profile.Email,
			GoogleID:  profile.GoogleID,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Avatar:    profile.Avatar,
			IsOnline:  true, // пользователь только что аутентифицировался
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	if profile.Avatar != "" && user.Avatar != profile.Avatar {
		user.Avatar = profile.Avatar
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *userService) SetOnline(ctx context.Context, userID uint, online bool) error {
	if userID == 0 {
		return ErrUserNotFound
	}
	return s.userRepo.UpdateOnlineStatus(ctx, userID, online)
}

// StoreRefreshToken сохраняет односторонний хеш выпущенного refresh-токена.
// Дальше хранения проверка отзыва в этом объёме не идёт.
func (s *userService) StoreRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	hash, err := auth.HashRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	return s.userRepo.AddRefreshToken(ctx, userID, hash)
}
