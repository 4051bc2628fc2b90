package util

import (
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey      = "x-user-id"
	UsernameKey    = "x-user-name"
	IsStaffKey     = "x-is-staff"
	IsSuperuserKey = "x-is-superuser"
)

func SetJWTContext(
	c *gin.Context,
	msg JWTMessage,
) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(IsStaffKey, msg.IsStaff)
	c.Set(IsSuperuserKey, msg.IsSuperuser)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.IsStaff = ctx.GetBool(IsStaffKey)
	msg.IsSuperuser = ctx.GetBool(IsSuperuserKey)
	return msg
}
