package mapper

import (
	"lamdam-be/internal/entity"
	"lamdam-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		Status:        entity.UserStatus(u.Status),
		Role:          entity.UserRole(u.Role),
		MonthlyTarget: u.MonthlyTarget,
		RegisteredAt:  u.RegisteredAt,
		LastActivity:  u.LastActivity,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		Image:         u.Image,
		Status:        string(u.Status),
		Role:          string(u.Role),
		MonthlyTarget: u.MonthlyTarget,
		RegisteredAt:  u.RegisteredAt,
		LastActivity:  u.LastActivity,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}
