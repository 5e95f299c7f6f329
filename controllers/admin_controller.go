package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogkit/comments/config"
	"github.com/blogkit/comments/middleware"
	"github.com/blogkit/comments/store"
	"github.com/blogkit/comments/utils"
)

const adminTokenTTL = 24 * time.Hour

// AdminController implements the moderation API behind JWT auth.
type AdminController struct {
	store *store.Store
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(s *store.Store) *AdminController {
	return &AdminController{store: s}
}

// Login checks the configured admin credential and issues a bearer token.
func (a *AdminController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	cfg := config.Get()
	if req.Username != cfg.AdminUsername || !utils.CheckPassword(cfg.AdminPasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(req.Username, adminTokenTTL)
	if err != nil {
		utils.Sugar.Errorf("issue admin token: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "expires_in": int(adminTokenTTL.Seconds())})
}

// Logout revokes the presented token for the rest of its lifetime.
func (a *AdminController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	until := time.Now().Add(adminTokenTTL)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, until)
	utils.Success(ctx, nil)
}

// ListComments returns stored records for moderation, email included.
// status=pending (default) shows only unapproved comments, status=all everything.
func (a *AdminController) ListComments(ctx *gin.Context) {
	var items interface{}
	var total int

	switch ctx.DefaultQuery("status", "pending") {
	case "pending":
		list := a.store.ListPending()
		items, total = list, len(list)
	case "all":
		list := a.store.ListAll()
		items, total = list, len(list)
	default:
		utils.Error(ctx, http.StatusBadRequest, 40031, "status must be pending or all")
		return
	}

	utils.Success(ctx, gin.H{"items": items, "total": total})
}

// ApproveComment flips the approved flag on, making the comment visible to
// the public listing from the next read on.
func (a *AdminController) ApproveComment(ctx *gin.Context) {
	id := ctx.Param("id")

	c, err := a.store.Approve(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "comment not found")
			return
		}
		utils.Sugar.Errorf("approve comment %s: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": c})
}

// DeleteComment removes a comment permanently.
func (a *AdminController) DeleteComment(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := a.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40431, "comment not found")
			return
		}
		utils.Sugar.Errorf("delete comment %s: %v", id, err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to save comment")
		return
	}

	utils.Success(ctx, nil)
}
