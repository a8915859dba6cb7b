package account

import (
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/session"
)

// Handler is the thin HTTP adapter in front of the state machine and the
// session issuer. It translates payloads and error values; no business rule
// lives here.
type Handler struct {
	service *Service
	issuer  *session.Issuer
	log     *zap.Logger
	devMode bool
}

func NewHandler(service *Service, issuer *session.Issuer, log *zap.Logger, devMode bool) *Handler {
	return &Handler{
		service: service,
		issuer:  issuer,
		log:     log,
		devMode: devMode,
	}
}

// AddAuthRoutes registers the public authentication endpoints.
func (h *Handler) AddAuthRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/verify", h.verify)
	auth.POST("/resend-code", h.resendCode)
	auth.POST("/forgot-password", h.forgotPassword)
	auth.POST("/reset-password", h.resetPassword)
	auth.POST("/refresh", h.refresh)
}

// AddUserRoutes registers the endpoints behind a valid session.
func (h *Handler) AddUserRoutes(rg *gin.RouterGroup, mw *session.Middleware) {
	user := rg.Group("/user")
	user.Use(mw.RequireAuth())
	user.GET("/profile", h.getProfile)
	user.PATCH("/profile", h.updateProfile)
	user.POST("/password", h.changePassword)
	user.POST("/logout", h.logout)
}

type registerRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       string  `json:"email" binding:"required"`
	Password    string  `json:"password" binding:"required"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
	AcceptTerms bool    `json:"acceptTerms"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing payload"})
		return
	}
	if !isValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		return
	}
	if !req.AcceptTerms {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you must accept the terms and conditions"})
		return
	}

	acct, code, err := h.service.Register(c.Request.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Company:   req.Company,
	})
	if err != nil {
		switch err {
		case ErrDuplicateEmail:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case ErrPasswordTooWeak, ErrEmptyPassword:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	resp := gin.H{
		"message":              "account created, please verify your email",
		"user":                 gin.H{"id": acct.ID, "email": acct.Email, "name": acct.Name},
		"verificationRequired": true,
	}
	if h.devMode {
		resp["verificationCode"] = code
	}
	c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing payload"})
		return
	}

	acct, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case ErrAccountSuspended:
			c.JSON(http.StatusForbidden, gin.H{"error": "account suspended, please contact support"})
		default:
			h.log.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	token, err := h.issuer.Issue(session.Identity{
		ID:    acct.ID,
		Email: acct.Email,
		Name:  acct.Name,
		Role:  string(acct.Role),
	})
	if err != nil {
		h.log.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": acct.ID, "email": acct.Email, "name": acct.Name, "role": acct.Role},
	})
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and verification code are required"})
		return
	}

	if _, err := h.service.ConfirmVerification(c.Request.Context(), req.Email, req.Code); err != nil {
		switch err {
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case ErrAlreadyVerified, ErrNoPendingCode, ErrCodeExpired, ErrCodeMismatch:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account verified successfully", "verified": true})
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) resendCode(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	code, err := h.service.RequestVerification(c.Request.Context(), req.Email)
	if err != nil {
		switch err {
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case ErrAlreadyVerified:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("failed to resend verification code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	resp := gin.H{"message": "verification code sent"}
	if h.devMode {
		resp["code"] = code
	}
	c.JSON(http.StatusOK, resp)
}

// forgotPassword responds identically whether or not the address is
// registered.
func (h *Handler) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	code, err := h.service.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		h.log.Error("forgot password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	resp := gin.H{"message": "if an account exists, a reset code has been sent"}
	if h.devMode && code != "" {
		resp["resetCode"] = code
	}
	c.JSON(http.StatusOK, resp)
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	ResetCode   string `json:"resetCode" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, reset code, and new password are required"})
		return
	}

	err := h.service.ConfirmPasswordReset(c.Request.Context(), req.Email, req.ResetCode, req.NewPassword)
	if err != nil {
		switch err {
		case ErrInvalidOrExpiredCode, ErrPasswordTooWeak:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("password reset failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset successfully"})
}

type refreshRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.issuer.Validate(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// Pick up identity changes made since the token was issued.
	var updated *session.Identity
	if acct, err := h.service.Get(c.Request.Context(), claims.AccountID()); err == nil {
		updated = &session.Identity{Email: acct.Email, Name: acct.Name, Role: string(acct.Role)}
	}

	token, err := h.issuer.Refresh(req.Token, updated)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) getProfile(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)

	acct, err := h.service.Get(c.Request.Context(), claims.AccountID())
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to load account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), acct.ID)
	if err != nil {
		h.log.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": acct, "profile": profile})
}

type profileUpdateRequest struct {
	AccountPatch
	Profile ProfilePatch `json:"profile"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing payload"})
		return
	}

	acct, profile, err := h.service.UpdateProfile(c.Request.Context(), claims.AccountID(), req.AccountPatch, req.Profile)
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": acct, "profile": profile})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) changePassword(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current and new password are required"})
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), claims.AccountID(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch err {
		case ErrNoPasswordSet, ErrWrongPassword, ErrPasswordTooWeak:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.log.Error("password change failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

func (h *Handler) logout(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)
	h.service.Logout(c.Request.Context(), claims.AccountID())
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
