package query

import (
	"context"
	"time"

	"github.com/raids-lab/buildtracker/dao/model"
)

func (q *Query) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := q.ctx(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (q *Query) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := q.ctx(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (q *Query) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := q.ctx(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (q *Query) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := q.ctx(ctx).Order("id").Find(&users).Error
	return users, err
}

func (q *Query) CreateUser(ctx context.Context, user *model.User) error {
	return q.ctx(ctx).Create(user).Error
}

func (q *Query) SaveUser(ctx context.Context, user *model.User) error {
	return q.ctx(ctx).Save(user).Error
}

func (q *Query) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return q.ctx(ctx).Model(&model.User{}).Where("id = ?", userID).Update("last_login", at).Error
}

// DeleteUser removes the user and the blacklist entries issued to it.
func (q *Query) DeleteUser(ctx context.Context, id uint) error {
	return q.Transaction(ctx, func(tx *Query) error {
		if err := tx.ctx(ctx).Where("user_id = ?", id).Delete(&model.BlacklistedToken{}).Error; err != nil {
			return err
		}
		res := tx.ctx(ctx).Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
