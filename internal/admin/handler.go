package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meridianlabs/accounthub/internal/account"
	"github.com/meridianlabs/accounthub/internal/audit"
	"github.com/meridianlabs/accounthub/internal/session"
)

const recentAuditLimit = 10

// Handler serves the admin console API. MODERATOR sessions get read access;
// mutations require ADMIN.
type Handler struct {
	accounts *account.Service
	auditLog audit.Reader
	log      *zap.Logger
}

func NewHandler(accounts *account.Service, auditLog audit.Reader, log *zap.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		auditLog: auditLog,
		log:      log,
	}
}

func (h *Handler) AddAdminRoutes(rg *gin.RouterGroup, mw *session.Middleware) {
	admin := rg.Group("/admin")
	admin.Use(mw.RequireAuth())

	readGroup := admin.Group("/")
	readGroup.Use(mw.RequireRole(string(account.RoleAdmin), string(account.RoleModerator)))
	{
		readGroup.GET("/users", h.listUsers)
		readGroup.GET("/users/:userID", h.getUser)
		readGroup.GET("/stats", h.stats)
	}

	writeGroup := admin.Group("/")
	writeGroup.Use(mw.RequireRole(string(account.RoleAdmin)))
	{
		writeGroup.PATCH("/users/:userID", h.updateUser)
		writeGroup.DELETE("/users/:userID", h.deleteUser)
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	opts := account.ListOptions{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Role:     account.Role(c.Query("role")),
		Status:   account.Status(c.Query("status")),
	}

	users, total, err := h.accounts.List(c.Request.Context(), opts)
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error getting users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"total":    total,
		"page":     opts.Page,
		"pageSize": opts.PageSize,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	userID := c.Param("userID")

	acct, err := h.accounts.Get(c.Request.Context(), userID)
	if err != nil {
		if err == account.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error getting user"})
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load profile", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error getting user"})
		return
	}

	logs, err := h.auditLog.RecentForUser(c.Request.Context(), userID, recentAuditLimit)
	if err != nil {
		h.log.Error("failed to load audit entries", zap.String("user_id", userID), zap.Error(err))
		logs = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      acct,
		"profile":   profile,
		"auditLogs": logs,
	})
}

type updateUserRequest struct {
	Role   *account.Role   `json:"role"`
	Status *account.Status `json:"status"`
}

func (h *Handler) updateUser(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)
	userID := c.Param("userID")

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "error parsing payload"})
		return
	}
	if req.Role == nil && req.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	// One service call so a rejected field cannot leave a half-applied patch.
	acct, err := h.accounts.UpdateUser(c.Request.Context(), claims.AccountID(), userID, req.Role, req.Status)
	if err != nil {
		h.writeUpdateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": acct})
}

func (h *Handler) writeUpdateError(c *gin.Context, err error) {
	switch err {
	case account.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case account.ErrSelfStatusChange:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case account.ErrInvalidRole, account.ErrInvalidStatus, account.ErrNotVerified:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("user update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error updating user"})
	}
}

func (h *Handler) deleteUser(c *gin.Context) {
	claims, _ := session.ClaimsFromContext(c)
	userID := c.Param("userID")

	err := h.accounts.Delete(c.Request.Context(), claims.AccountID(), userID)
	if err != nil {
		switch err {
		case account.ErrSelfStatusChange:
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		case account.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.log.Error("user delete failed", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error deleting user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.accounts.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("failed to load stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error getting stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
