package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ldap "github.com/go-ldap/ldap/v3"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/internal/util"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name     string
	q        *query.Query
	conf     *config.Config
	tokenMgr *util.TokenManager
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:     "auth",
		q:        conf.Query,
		conf:     conf.Config,
		tokenMgr: conf.TokenMgr,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/register", mgr.Register)
	g.POST("/login", mgr.Login)
	g.POST("/token", mgr.Login)
	g.POST("/token/refresh", mgr.RefreshToken)
	g.POST("/token/verify", mgr.VerifyToken)
	g.POST("/logout", mgr.Logout)
}

func (mgr *AuthMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	RegisterReq struct {
		Username string `json:"username" binding:"required,max=150"`
		Email    string `json:"email" binding:"omitempty,email,max=254"`
		Password string `json:"password" binding:"required"`
	}

	LoginReq struct {
		Username   string `json:"username" binding:"required"` // 用户名
		Password   string `json:"password" binding:"required"` // 密码
		AuthMethod string `json:"auth"`                        // 认证方式 [normal, ldap], 默认 normal
	}

	TokenPairResp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	RefreshReq struct {
		Refresh string `json:"refresh" binding:"required"` // 不需要添加 `Bearer ` 前缀
	}

	VerifyReq struct {
		Token string `json:"token" binding:"required"`
	}

	LogoutReq struct {
		Refresh      string `json:"refresh"`
		RefreshToken string `json:"refresh_token"`
	}

	MessageResp struct {
		Message string `json:"message"`
	}
)

const (
	AuthMethodNormal = "normal"
	AuthMethodLDAP   = "ldap"
)

var errInvalidCredentials = errors.New("invalid credentials")

// Register godoc
// @Summary 用户注册
// @Description 创建新用户，用户名必须唯一
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body RegisterReq true "用户信息"
// @Success 201 {object} resputil.Response[UserResp] "注册成功"
// @Failure 400 {object} resputil.Response[any] "请求参数错误或用户名已存在"
// @Failure 500 {object} resputil.Response[any] "其他错误"
// @Router /api/register [post]
func (mgr *AuthMgr) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if reservedUsername(req.Username, mgr.conf.Auth.AdminUsername) {
		resputil.BadRequestError(c, "This username is reserved.")
		return
	}

	exists, err := mgr.q.UsernameExists(c, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	if exists {
		resputil.BadRequestError(c, "A user with that username already exists.")
		return
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: &hashed,
	}
	if err := mgr.q.CreateUser(c, user); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("register user success, username: %s", user.Username)
	resputil.Created(c, toUserResp(user))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Login godoc
// @Summary 用户登录
// @Description 校验用户身份，返回 access / refresh JWT Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body LoginReq true "登录参数"
// @Success 200 {object} resputil.Response[TokenPairResp] "登录成功"
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Failure 401 {object} resputil.Response[any] "用户名或密码错误"
// @Failure 500 {object} resputil.Response[any] "数据库交互错误"
// @Router /api/login [post]
func (mgr *AuthMgr) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	l := logutils.Log.WithFields(logutils.Fields{
		"username": req.Username,
		"auth":     req.AuthMethod,
	})

	var (
		user *model.User
		err  error
	)
	switch req.AuthMethod {
	case "", AuthMethodNormal:
		user, err = mgr.normalAuth(c, req.Username, req.Password)
	case AuthMethodLDAP:
		if !mgr.conf.Auth.LDAP.Enable {
			resputil.BadRequestError(c, "LDAP login is disabled")
			return
		}
		user, err = mgr.ldapLogin(c, req.Username, req.Password)
	default:
		l.Error("invalid auth method: ", req.AuthMethod)
		resputil.BadRequestError(c, "Invalid auth method")
		return
	}
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			l.Warn("invalid credentials")
			resputil.HTTPError(c, http.StatusUnauthorized,
				"No active account found with the given credentials", resputil.InvalidCredentials)
			return
		}
		respondError(c, err)
		return
	}

	if err := mgr.q.TouchLastLogin(c, user.ID, time.Now()); err != nil {
		l.Warn("update last login: ", err)
	}
	mgr.issueTokens(c, user)
}

func (mgr *AuthMgr) issueTokens(c *gin.Context, user *model.User) {
	jwtMessage := util.JWTMessage{
		UserID:      user.ID,
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	}
	accessToken, refreshToken, err := mgr.tokenMgr.CreateTokens(&jwtMessage)
	if err != nil {
		resputil.HTTPError(c, http.StatusInternalServerError, err.Error(), resputil.NotSpecified)
		return
	}
	resputil.Success(c, TokenPairResp{Access: accessToken, Refresh: refreshToken})
}

func (mgr *AuthMgr) normalAuth(c *gin.Context, username, password string) (*model.User, error) {
	user, err := mgr.q.GetUserByUsername(c, username)
	if errors.Is(err, query.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user, password) {
		return nil, errInvalidCredentials
	}
	return user, nil
}

func checkPassword(user *model.User, password string) bool {
	p := user.Password
	if p == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*p), []byte(password)) == nil
}

// ldapLogin authenticates against the directory and creates the local account on
// first login.
func (mgr *AuthMgr) ldapLogin(c *gin.Context, username, password string) (*model.User, error) {
	email, err := mgr.ldapAuth(username, password)
	if err != nil {
		logutils.Log.Warnf("ldap auth %s: %v", username, err)
		return nil, errInvalidCredentials
	}

	user, err := mgr.q.GetUserByUsername(c, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, query.ErrNotFound) {
		return nil, err
	}
	// User exists in the directory but not in the database, create a new user
	user = &model.User{Username: username, Email: email}
	if err := mgr.q.CreateUser(c, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logutils.Log.Infof("created user %s from ldap", username)
	return user, nil
}

// ldapAuth binds as the service account, looks the user up and binds as the user.
// It returns the mail attribute of the entry.
func (mgr *AuthMgr) ldapAuth(username, password string) (string, error) {
	ldapConfig := mgr.conf.Auth.LDAP
	l, err := ldap.DialURL(ldapConfig.Address)
	if err != nil {
		return "", err
	}
	defer l.Close()

	if err = l.Bind(ldapConfig.UserName, ldapConfig.Password); err != nil {
		return "", err
	}

	searchRequest := ldap.NewSearchRequest(
		ldapConfig.SearchDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(username)),
		[]string{"dn", "mail"},
		nil,
	)
	searchResult, err := l.Search(searchRequest)
	if err != nil {
		return "", err
	}
	if len(searchResult.Entries) != 1 {
		return "", fmt.Errorf("user not found or too many entries returned")
	}

	entry := searchResult.Entries[0]
	if err = l.Bind(entry.DN, password); err != nil {
		return "", err
	}
	return entry.GetAttributeValue("mail"), nil
}

func tokenError(c *gin.Context, err error) {
	code := resputil.TokenInvalid
	if errors.Is(err, util.ErrTokenExpired) {
		code = resputil.TokenExpired
	}
	resputil.HTTPError(c, http.StatusUnauthorized, err.Error(), code)
}

// RefreshToken godoc
// @Summary 刷新 Token
// @Description 使用 refresh token 换取新的 token 对，旧的 refresh token 被加入黑名单
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body RefreshReq true "refresh token"
// @Success 200 {object} resputil.Response[TokenPairResp] "新的 Token"
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Failure 401 {object} resputil.Response[any] "Token 无效、过期或已注销"
// @Router /api/token/refresh [post]
func (mgr *AuthMgr) RefreshToken(c *gin.Context) {
	var req RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	claims, err := mgr.tokenMgr.CheckRefreshToken(req.Refresh)
	if err != nil {
		tokenError(c, err)
		return
	}
	blacklisted, err := mgr.q.IsBlacklisted(c, claims.JTI)
	if err != nil {
		respondError(c, err)
		return
	}
	if blacklisted {
		resputil.HTTPError(c, http.StatusUnauthorized, "Token is blacklisted", resputil.TokenInvalid)
		return
	}

	// flags may have changed since the token was issued
	user, err := mgr.q.GetUser(c, claims.UserID)
	if err != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "User not found", resputil.TokenInvalid)
		return
	}
	if err := mgr.q.BlacklistToken(c, claims.JTI, claims.UserID, claims.ExpiresAt); err != nil {
		respondError(c, err)
		return
	}
	mgr.issueTokens(c, user)
}

// VerifyToken godoc
// @Summary 校验 Token
// @Description 校验 access 或 refresh token 是否有效
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body VerifyReq true "token"
// @Success 200 {object} resputil.Response[any] "Token 有效"
// @Failure 401 {object} resputil.Response[any] "Token 无效"
// @Router /api/token/verify [post]
func (mgr *AuthMgr) VerifyToken(c *gin.Context) {
	var req VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	if _, err := mgr.tokenMgr.CheckToken(req.Token); err == nil {
		resputil.Success(c, gin.H{})
		return
	}
	claims, err := mgr.tokenMgr.CheckRefreshToken(req.Token)
	if err != nil {
		tokenError(c, err)
		return
	}
	blacklisted, err := mgr.q.IsBlacklisted(c, claims.JTI)
	if err != nil {
		respondError(c, err)
		return
	}
	if blacklisted {
		resputil.HTTPError(c, http.StatusUnauthorized, "Token is blacklisted", resputil.TokenInvalid)
		return
	}
	resputil.Success(c, gin.H{})
}

// Logout godoc
// @Summary 注销
// @Description 将 refresh token 加入黑名单
// @Tags Auth
// @Accept json
// @Produce json
// @Param data body LogoutReq true "refresh token"
// @Success 200 {object} resputil.Response[MessageResp] "注销成功"
// @Failure 400 {object} resputil.Response[any] "未提供或无效的 Token"
// @Router /api/logout [post]
func (mgr *AuthMgr) Logout(c *gin.Context) {
	var req LogoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	token := lo.CoalesceOrEmpty(req.Refresh, req.RefreshToken)
	if token == "" {
		resputil.BadRequestError(c, "No refresh token provided")
		return
	}

	claims, err := mgr.tokenMgr.CheckRefreshToken(token)
	if err != nil {
		logutils.Log.Warn("logout with invalid token: ", err)
		resputil.BadRequestError(c, "Invalid token")
		return
	}
	if err := mgr.q.BlacklistToken(c, claims.JTI, claims.UserID, claims.ExpiresAt); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("user %s logged out", claims.Username)
	resputil.Success(c, MessageResp{Message: "Logged out successfully"})
}
