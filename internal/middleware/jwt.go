package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/internal/util"
)

func AuthProtected(tokenMgr *util.TokenManager, q *query.Query) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		t := strings.Split(authHeader, " ")
		if len(t) < 2 || t[0] != "Bearer" {
			resputil.HTTPError(c, http.StatusUnauthorized, "Invalid token", resputil.TokenInvalid)
			c.Abort()
			return
		}

		authToken := t[1]
		token, err := tokenMgr.CheckToken(authToken)
		if err != nil {
			code := resputil.TokenInvalid
			if errors.Is(err, util.ErrTokenExpired) {
				code = resputil.TokenExpired
			}
			resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), code)
			c.Abort()
			return
		}

		// 如果查询方法不是 GET (e.g. POST, PUT, DELETE), 从数据库中校验用户和权限
		if c.Request.Method != http.MethodGet {
			user, err := q.GetUser(c, token.UserID)
			if err != nil {
				resputil.HTTPError(c, http.StatusUnauthorized, "User not found", resputil.TokenInvalid)
				c.Abort()
				return
			}
			if user.IsStaff != token.IsStaff || user.IsSuperuser != token.IsSuperuser {
				resputil.HTTPError(c, http.StatusUnauthorized, "Role changed, please login again", resputil.TokenExpired)
				c.Abort()
				return
			}
			token.Username = user.Username
		}

		// If request method is GET, use the user info from token.
		util.SetJWTContext(c, token)
		c.Next()
	}
}

// IsAdmin tells whether the token holder may administer other users: superusers and
// the account named adminUsername.
func IsAdmin(token util.JWTMessage, adminUsername string) bool {
	return token.IsSuperuser || (adminUsername != "" && token.Username == adminUsername)
}

func AuthAdmin(adminUsername string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.GetToken(c)
		if !IsAdmin(token, adminUsername) {
			resputil.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}
