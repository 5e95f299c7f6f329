package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogkit/comments/models"
	"github.com/blogkit/comments/store"
	"github.com/blogkit/comments/utils"
)

// CommentController serves the public comment API.
type CommentController struct {
	store *store.Store
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(s *store.Store) *CommentController {
	return &CommentController{store: s}
}

// ListComments returns the approved comments of one post as a JSON array,
// oldest first. An unknown post yields an empty array.
func (cc *CommentController) ListComments(ctx *gin.Context) {
	postID := strings.TrimSpace(ctx.Query("post_id"))
	if postID == "" {
		// legacy query key used by the first version of the widget
		postID = strings.TrimSpace(ctx.Query("post"))
	}
	if postID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "post_id query parameter is required")
		return
	}

	now := time.Now().UTC()
	comments := cc.store.List(postID)
	out := make([]models.PublicComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Public(utils.TimeAgo(c.CreatedAt, now)))
	}
	ctx.JSON(http.StatusOK, out)
}

// CreateComment validates and stores a new comment, replying 201 with the
// stored record, 400 naming the offending field, or 500 when the backing file
// could not be written.
func (cc *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		PostID    string `json:"post_id"`
		Author    string `json:"author"`
		AuthorURL string `json:"author_url"`
		Website   string `json:"website"` // legacy alias for author_url
		Email     string `json:"email"`
		Body      string `json:"body"`
		Text      string `json:"text"` // legacy alias for body
		ParentID  string `json:"parent_id"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	if req.Body == "" {
		req.Body = req.Text
	}
	if req.AuthorURL == "" {
		req.AuthorURL = req.Website
	}

	c, err := cc.store.Create(store.CreateInput{
		PostID:    req.PostID,
		Author:    req.Author,
		AuthorURL: req.AuthorURL,
		Email:     req.Email,
		Body:      req.Body,
		ParentID:  req.ParentID,
	})
	if err != nil {
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			utils.Error(ctx, http.StatusBadRequest, 40012, fmt.Sprintf("%s %s", vErr.Field, vErr.Reason))
			return
		}
		utils.Sugar.Errorf("create comment: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to save comment")
		return
	}

	utils.NotifyNewComment(c)
	ctx.JSON(http.StatusCreated, c.Public("just now"))
}
