package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raids-lab/buildtracker/internal/handler"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/internal/testutil"
)

func login(t *testing.T, env *testutil.TestEnv, username, password string) handler.TokenPairResp {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/login",
		handler.LoginReq{Username: username, Password: password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair handler.TokenPairResp
	testutil.ParseResponse(t, w, &pair)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	return pair
}

func TestRegisterAndLogin(t *testing.T) {
	env := testutil.Setup(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/register", handler.RegisterReq{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw-123456",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user handler.UserResp
	testutil.ParseResponse(t, w, &user)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsStaff)

	t.Run("duplicate username", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/register",
			handler.RegisterReq{Username: "alice", Password: "other"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin username is reserved", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/register",
			handler.RegisterReq{Username: testutil.AdminUsername, Password: "pw-123456"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "This username is reserved.", testutil.ParseResponse(t, w, nil).Msg)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/register",
			handler.RegisterReq{Username: "bob", Email: "bob", Password: "pw"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login", func(t *testing.T) {
		pair := login(t, env, "alice", "pw-123456")
		w := testutil.DoRequest(env.Router, http.MethodGet, "/api/user", nil, pair.Access)
		require.Equal(t, http.StatusOK, w.Code)
		var me handler.UserResp
		testutil.ParseResponse(t, w, &me)
		assert.Equal(t, user.ID, me.ID)
	})

	t.Run("token alias", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/token",
			handler.LoginReq{Username: "alice", Password: "pw-123456"}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/login",
			handler.LoginReq{Username: "alice", Password: "nope"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := testutil.ParseResponse(t, w, nil)
		assert.EqualValues(t, resputil.InvalidCredentials, resp.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/login",
			handler.LoginReq{Username: "nobody", Password: "pw-123456"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ldap disabled", func(t *testing.T) {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/login",
			handler.LoginReq{Username: "alice", Password: "pw-123456", AuthMethod: "ldap"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	env := testutil.Setup(t)
	env.SeedUser("alice", false, false)
	pair := login(t, env, "alice", testutil.Password)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/token/refresh",
		handler.RefreshReq{Refresh: pair.Refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated handler.TokenPairResp
	testutil.ParseResponse(t, w, &rotated)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	// 旧 refresh token 已进入黑名单
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/refresh",
		handler.RefreshReq{Refresh: pair.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/verify",
		handler.VerifyReq{Token: pair.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/refresh",
		handler.RefreshReq{Refresh: rotated.Refresh}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// access token 不能当作 refresh token 使用
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/refresh",
		handler.RefreshReq{Refresh: pair.Access}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyToken(t *testing.T) {
	env := testutil.Setup(t)
	env.SeedUser("alice", false, false)
	pair := login(t, env, "alice", testutil.Password)

	for _, token := range []string{pair.Access, pair.Refresh} {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/token/verify",
			handler.VerifyReq{Token: token}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/token/verify",
		handler.VerifyReq{Token: "not-a-token"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/verify", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	env := testutil.Setup(t)
	env.SeedUser("alice", false, false)
	pair := login(t, env, "alice", testutil.Password)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/logout", handler.LogoutReq{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/logout", handler.LogoutReq{Refresh: "garbage"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/logout",
		handler.LogoutReq{RefreshToken: pair.Refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var msg handler.MessageResp
	testutil.ParseResponse(t, w, &msg)
	assert.Equal(t, "Logged out successfully", msg.Message)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/token/refresh",
		handler.RefreshReq{Refresh: pair.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
