package handle

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/service"
	"github.com/yeisme/studyvault/pkg/internal/types"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/middleware"
	"github.com/yeisme/studyvault/pkg/rule"
)

// parseIDParam 解析路径中的数字 ID.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid "+name)

		return 0, false
	}

	return uint(id), true
}

// GetMe 查询当前用户
//
//	@Summary	当前用户信息
//	@Tags		users
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/me [get]
func GetMe(c *gin.Context) {
	userID, _ := currentUser(c)

	svc := service.NewUserService(c.Request.Context())

	user, err := svc.GetByID(userID)
	if err != nil {
		fail(c, http.StatusNotFound, "user not found")

		return
	}

	ok(c, http.StatusOK, service.ToUserResponse(user))
}

// UpdatePassword 修改当前用户密码
//
//	@Summary	修改密码
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.UpdatePasswordRequest	true	"新旧密码"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/me/password [put]
func UpdatePassword(c *gin.Context) {
	var req types.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	userID, _ := currentUser(c)
	svc := service.NewAuthService(c.Request.Context())

	if err := svc.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			fail(c, http.StatusNotFound, "user not found")
		default:
			nlog.Logger().Error().Err(err).Msg("failed to change password")
			fail(c, http.StatusInternalServerError, "failed to change password")
		}

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "password updated"})
}

// GetUser 查询用户
//
//	@Summary	查询用户信息
//	@Tags		users
//	@Produce	json
//	@Param		id	path		int	true	"用户ID"
//	@Success	200	{object}	map[string]any
//	@Failure	404	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/{id} [get]
func GetUser(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	user, err := svc.GetByID(id)
	if err != nil {
		fail(c, http.StatusNotFound, "user not found")

		return
	}

	ok(c, http.StatusOK, service.ToUserResponse(user))
}

// ListUsers 管理员列出用户
//
//	@Summary	用户列表
//	@Tags		users
//	@Produce	json
//	@Param		page		query		int	false	"页码"
//	@Param		page_size	query		int	false	"每页数量"
//	@Success	200			{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users [get]
func ListUsers(c *gin.Context) {
	var q types.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, "invalid query parameters")

		return
	}

	svc := service.NewUserService(c.Request.Context())

	users, total, err := svc.List(&q)
	if err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to list users")
		fail(c, http.StatusInternalServerError, "failed to list users")

		return
	}

	items := make([]types.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, service.ToUserResponse(&users[i]))
	}

	ok(c, http.StatusOK, types.PagedResponse[types.UserResponse]{
		Items: items, Total: total, Page: q.Page, PageSize: q.PageSize,
	})
}

// UpdateUser 更新用户资料（本人或管理员）
//
//	@Summary	更新用户资料
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int						true	"用户ID"
//	@Param		request	body		types.UpdateUserRequest	true	"更新字段"
//	@Success	200		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/{id} [put]
func UpdateUser(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	actorID, role := currentUser(c)
	if actorID != id && role < middleware.RoleAdmin {
		fail(c, http.StatusForbidden, "insufficient permissions")

		return
	}

	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewUserService(c.Request.Context())

	user, err := svc.Update(id, &req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "user not found")

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to update user")
		fail(c, http.StatusInternalServerError, "failed to update user")

		return
	}

	ok(c, http.StatusOK, service.ToUserResponse(user))
}

// UpdateUserRole 管理员修改用户角色
//
//	@Summary	修改用户角色
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int							true	"用户ID"
//	@Param		request	body		types.UpdateUserRoleRequest	true	"目标角色"
//	@Success	200		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/{id}/role [put]
func UpdateUserRole(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	var req types.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewUserService(c.Request.Context())

	user, err := svc.UpdateRole(id, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "user not found")

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to update user role")
		fail(c, http.StatusInternalServerError, "failed to update user role")

		return
	}

	ok(c, http.StatusOK, service.ToUserResponse(user))
}

// DeleteUser 管理员删除用户
//
//	@Summary	删除用户
//	@Tags		users
//	@Produce	json
//	@Param		id	path		int	true	"用户ID"
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/users/{id} [delete]
func DeleteUser(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	if err := svc.Delete(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "user not found")

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to delete user")
		fail(c, http.StatusInternalServerError, "failed to delete user")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "user deleted"})
}
