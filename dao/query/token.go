package query

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/raids-lab/buildtracker/dao/model"
)

// BlacklistToken stores the jti. Blacklisting the same token twice is not an error.
// Times are kept in UTC so they compare as text on sqlite too.
func (q *Query) BlacklistToken(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	token := &model.BlacklistedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt.UTC()}
	return q.ctx(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(token).Error
}

func (q *Query) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := q.ctx(ctx).Model(&model.BlacklistedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

// PurgeExpiredTokens drops entries whose token has expired anyway.
func (q *Query) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res := q.ctx(ctx).Where("expires_at < ?", now.UTC()).Delete(&model.BlacklistedToken{})
	return res.RowsAffected, res.Error
}
