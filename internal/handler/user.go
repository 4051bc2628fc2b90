package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/middleware"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/internal/util"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewUserMgr)
}

type UserMgr struct {
	name          string
	q             *query.Query
	adminUsername string
}

func NewUserMgr(conf *RegisterConfig) Manager {
	return &UserMgr{
		name:          "users",
		q:             conf.Query,
		adminUsername: conf.Config.Auth.AdminUsername,
	}
}

func (mgr *UserMgr) GetName() string { return mgr.name }

func (mgr *UserMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *UserMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/user", mgr.GetCurrentUser)
	g.PUT("/user", mgr.UpdateCurrentUser)
	g.PATCH("/user", mgr.UpdateCurrentUser)
	g.GET("/users", mgr.ListUser)
	g.POST("/update_user", mgr.UpdateUser)
	g.DELETE("/delete_user", mgr.DeleteUser)
	g.POST("/update_staff_status", mgr.UpdateStaffStatus)
}

func (mgr *UserMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	UserResp struct {
		ID       uint   `json:"id"`       // 用户ID
		Username string `json:"username"` // 用户名称
		Email    string `json:"email"`    // 邮箱
		IsStaff  bool   `json:"is_staff"` // 是否为员工
	}

	UserListResp struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsStaff   bool   `json:"is_staff"`
	}

	UpdateCurrentUserReq struct {
		Username *string `json:"username" binding:"omitempty,min=1,max=150"`
		Email    *string `json:"email" binding:"omitempty,email,max=254"`
		Password *string `json:"password" binding:"omitempty,min=1"`
	}

	UpdateUserReq struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldPassword"`
		NewUsername string `json:"newUsername" binding:"max=150"`
		NewPassword string `json:"newPassword"`
		NewEmail    string `json:"newEmail" binding:"omitempty,email,max=254"`
	}

	DeleteUserReq struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldPassword"`
	}

	UpdateStaffStatusReq struct {
		Username string `json:"username"`
		IsStaff  *bool  `json:"is_staff"`
	}
)

func toUserResp(user *model.User) UserResp {
	return UserResp{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	}
}

// GetCurrentUser godoc
// @Summary 获取当前用户信息
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[UserResp] "当前用户"
// @Failure 404 {object} resputil.Response[any] "用户不存在"
// @Router /api/user [get]
func (mgr *UserMgr) GetCurrentUser(c *gin.Context) {
	token := util.GetToken(c)
	user, err := mgr.q.GetUser(c, token.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, toUserResp(user))
}

// UpdateCurrentUser godoc
// @Summary 修改当前用户信息
// @Description 部分更新用户名、邮箱和密码，未提供的字段保持不变
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UpdateCurrentUserReq true "需要修改的字段"
// @Success 200 {object} resputil.Response[UserResp] "修改成功"
// @Failure 400 {object} resputil.Response[any] "请求参数错误或用户名已存在"
// @Router /api/user [put]
func (mgr *UserMgr) UpdateCurrentUser(c *gin.Context) {
	var req UpdateCurrentUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	token := util.GetToken(c)
	user, err := mgr.q.GetUser(c, token.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Username != nil && *req.Username != user.Username {
		if ok := mgr.checkUsernameFree(c, *req.Username); !ok {
			return
		}
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		user.Password = &hashed
	}
	if err := mgr.q.SaveUser(c, user); err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, toUserResp(user))
}

// reservedUsername 配置的管理员用户名只能通过 bootstrap 创建，不能注册或改名占用
func reservedUsername(username, adminUsername string) bool {
	return adminUsername != "" && username == adminUsername
}

func (mgr *UserMgr) checkUsernameFree(c *gin.Context, username string) bool {
	if reservedUsername(username, mgr.adminUsername) {
		resputil.BadRequestError(c, "This username is reserved.")
		return false
	}
	exists, err := mgr.q.UsernameExists(c, username)
	if err != nil {
		respondError(c, err)
		return false
	}
	if exists {
		resputil.BadRequestError(c, "A user with that username already exists.")
		return false
	}
	return true
}

// ListUser godoc
// @Summary 列出用户信息
// @Tags User
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]UserListResp] "成功获取用户信息"
// @Failure 500 {object} resputil.Response[any] "其他错误"
// @Router /api/users [get]
func (mgr *UserMgr) ListUser(c *gin.Context) {
	users, err := mgr.q.ListUsers(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]UserListResp, 0, len(users))
	for i := range users {
		resp = append(resp, UserListResp{
			Username:  users[i].Username,
			Email:     users[i].Email,
			FirstName: users[i].FirstName,
			LastName:  users[i].LastName,
			IsStaff:   users[i].IsStaff,
		})
	}
	resputil.Success(c, resp)
}

// authenticate checks username and password, answering 400 when they do not match.
func (mgr *UserMgr) authenticate(c *gin.Context, username, password string) (*model.User, bool) {
	if username == "" || password == "" {
		resputil.BadRequestError(c, "Username and old password are required")
		return nil, false
	}
	user, err := mgr.q.GetUserByUsername(c, username)
	if err != nil && !errors.Is(err, query.ErrNotFound) {
		respondError(c, err)
		return nil, false
	}
	if err != nil || !checkPassword(user, password) {
		resputil.BadRequestError(c, "Invalid username or password")
		return nil, false
	}
	return user, true
}

// UpdateUser godoc
// @Summary 校验旧密码后修改用户信息
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UpdateUserReq true "用户名、旧密码和新的字段"
// @Success 200 {object} resputil.Response[MessageResp] "修改成功"
// @Failure 400 {object} resputil.Response[any] "缺少参数或用户名密码错误"
// @Router /api/update_user [post]
func (mgr *UserMgr) UpdateUser(c *gin.Context) {
	var req UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	user, ok := mgr.authenticate(c, req.Username, req.OldPassword)
	if !ok {
		return
	}

	if req.NewUsername != "" && req.NewUsername != user.Username {
		if ok := mgr.checkUsernameFree(c, req.NewUsername); !ok {
			return
		}
		user.Username = req.NewUsername
	}
	if req.NewEmail != "" {
		user.Email = req.NewEmail
	}
	if req.NewPassword != "" {
		hashed, err := hashPassword(req.NewPassword)
		if err != nil {
			respondError(c, err)
			return
		}
		user.Password = &hashed
	}
	if err := mgr.q.SaveUser(c, user); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("update user success, username: %s", user.Username)
	resputil.Success(c, MessageResp{Message: "User details updated successfully"})
}

// DeleteUser godoc
// @Summary 校验密码后删除用户
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body DeleteUserReq true "用户名和密码"
// @Success 200 {object} resputil.Response[MessageResp] "删除成功"
// @Failure 400 {object} resputil.Response[any] "缺少参数或用户名密码错误"
// @Router /api/delete_user [delete]
func (mgr *UserMgr) DeleteUser(c *gin.Context) {
	var req DeleteUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	user, ok := mgr.authenticate(c, req.Username, req.OldPassword)
	if !ok {
		return
	}
	if err := mgr.q.DeleteUser(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("delete user success, username: %s", user.Username)
	resputil.Success(c, MessageResp{Message: "User deleted successfully"})
}

// UpdateStaffStatus godoc
// @Summary 修改用户的员工标记
// @Description 仅超级管理员或配置的管理员账号可以调用
// @Tags User
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body UpdateStaffStatusReq true "用户名和员工标记"
// @Success 200 {object} resputil.Response[MessageResp] "修改成功"
// @Failure 400 {object} resputil.Response[any] "缺少参数"
// @Failure 403 {object} resputil.Response[any] "没有权限"
// @Failure 404 {object} resputil.Response[any] "用户不存在"
// @Router /api/update_staff_status [post]
func (mgr *UserMgr) UpdateStaffStatus(c *gin.Context) {
	var req UpdateStaffStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Username == "" || req.IsStaff == nil {
		resputil.BadRequestError(c, "Username and is_staff status are required")
		return
	}

	token := util.GetToken(c)
	if !middleware.IsAdmin(token, mgr.adminUsername) {
		logutils.Log.Warnf("user %s tried to change staff status of %s", token.Username, req.Username)
		resputil.Forbidden(c, "Permission denied")
		return
	}

	user, err := mgr.q.GetUserByUsername(c, req.Username)
	if errors.Is(err, query.ErrNotFound) {
		resputil.HTTPError(c, http.StatusNotFound, "User does not exist", resputil.UserNotFound)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	user.IsStaff = *req.IsStaff
	if err := mgr.q.SaveUser(c, user); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("user %s set is_staff=%t for %s", token.Username, user.IsStaff, user.Username)
	resputil.Success(c, MessageResp{Message: "User staff status updated successfully"})
}
