package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/service"
	"github.com/yeisme/studyvault/pkg/internal/types"
	nlog "github.com/yeisme/studyvault/pkg/log"
	"github.com/yeisme/studyvault/pkg/rule"
)

// Register 用户注册
//
//	@Summary	注册新用户
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.RegisterRequest	true	"注册信息"
//	@Success	201		{object}	map[string]any
//	@Failure	400		{object}	map[string]any
//	@Router		/api/v1/auth/register [post]
func Register(c *gin.Context) {
	l := nlog.Logger()

	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewAuthService(c.Request.Context())

	user, err := svc.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			fail(c, http.StatusConflict, err.Error())

			return
		}

		l.Error().Err(err).Msg("failed to register user")
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	ok(c, http.StatusCreated, service.ToUserResponse(user))
}

// Login 用户登录
//
//	@Summary	登录并签发令牌
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.LoginRequest	true	"登录凭证"
//	@Success	200		{object}	map[string]any
//	@Failure	401		{object}	map[string]any
//	@Router		/api/v1/auth/login [post]
func Login(c *gin.Context) {
	l := nlog.Logger()

	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewAuthService(c.Request.Context())

	token, user, err := svc.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, err.Error())

			return
		}

		l.Error().Err(err).Msg("failed to login")
		fail(c, http.StatusInternalServerError, "login failed")

		return
	}

	ok(c, http.StatusOK, types.LoginResponse{
		Token: token,
		User:  service.ToUserResponse(user),
	})
}

// Logout 注销当前令牌
//
//	@Summary	注销登录
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/auth/logout [post]
func Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")

	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		fail(c, http.StatusUnauthorized, "invalid authorization header format")

		return
	}

	svc := service.NewAuthService(c.Request.Context())
	if err := svc.Logout(tokenString); err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to revoke token")
		fail(c, http.StatusInternalServerError, "failed to logout")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "logged out"})
}

// SendVerification 发送手机验证码
//
//	@Summary	发送手机验证码
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.SendVerificationRequest	true	"手机号"
//	@Success	200		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/auth/verify/send [post]
func SendVerification(c *gin.Context) {
	var req types.SendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	svc := service.NewVerificationService(c.Request.Context())
	if err := svc.SendCode(req.Phone); err != nil {
		nlog.Logger().Error().Err(err).Msg("failed to send verification code")
		fail(c, http.StatusInternalServerError, "failed to send verification code")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "verification code sent"})
}

// VerifyPhone 校验手机验证码
//
//	@Summary	校验手机验证码
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.VerifyPhoneRequest	true	"手机号与验证码"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/api/v1/auth/verify [post]
func VerifyPhone(c *gin.Context) {
	var req types.VerifyPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")

		return
	}

	if err := rule.ValidateStruct(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	userID, _ := currentUser(c)
	svc := service.NewVerificationService(c.Request.Context())

	if err := svc.VerifyCode(userID, req.Phone, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			fail(c, http.StatusBadRequest, err.Error())

			return
		}

		nlog.Logger().Error().Err(err).Msg("failed to verify code")
		fail(c, http.StatusInternalServerError, "failed to verify code")

		return
	}

	ok(c, http.StatusOK, gin.H{"message": "phone verified"})
}
