package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	UpdateNickname(ctx context.Context, userID int64, nickname string) error
	SetBanned(ctx context.Context, userID int64, banned bool) error
	SetRole(ctx context.Context, userID int64, role enums.Role) error
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
}

type PointStore interface {
	Balance(ctx context.Context, userID int64) (int64, error)
}

type Dependencies struct {
	Users  UserStore
	Points PointStore
}

type Service struct {
	users  UserStore
	points PointStore
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []model.User
	Total int64
}

func NewService(deps Dependencies) *Service {
	return &Service{
		users:  deps.Users,
		points: deps.Points,
	}
}

// Profile assembles the caller's own view: account fields plus the
// current ledger balance.
func (s *Service) Profile(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Profile{}, s.mapErr(err)
	}

	balance, err := s.points.Balance(ctx, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("load balance: %w", err)
	}

	profile := model.Profile{
		UserID:    user.ID,
		Nickname:  user.Nickname,
		Points:    balance,
		IsAdmin:   user.Role == enums.RoleAdmin,
		CreatedAt: user.CreatedAt,
	}
	if user.Email != nil {
		profile.Email = *user.Email
	}
	if user.Phone != nil {
		profile.Phone = *user.Phone
	}
	return profile, nil
}

func (s *Service) UpdateNickname(ctx context.Context, userID int64, nickname string) error {
	if err := rules.ValidateNickname(nickname); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.users.UpdateNickname(ctx, userID, nickname); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// ListUsers is the admin lookup with the total for paging.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) (UserPage, error) {
	items, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return UserPage{}, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: items, Total: total}, nil
}

func (s *Service) GetUser(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, s.mapErr(err)
	}
	return user, nil
}

func (s *Service) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := s.users.SetBanned(ctx, userID, banned); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) SetRole(ctx context.Context, userID int64, role enums.Role) error {
	if !role.Valid() {
		return ErrValidation
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, pgrepo.ErrUserNotFound) {
		return ErrNotFound
	}
	return err
}
