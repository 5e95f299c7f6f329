package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/blogkit/comments/config"
	"github.com/blogkit/comments/controllers"
	"github.com/blogkit/comments/middleware"
	"github.com/blogkit/comments/store"
	"github.com/blogkit/comments/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(s *store.Store) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", func(ctx *gin.Context) {
		ctx.File(filepath.Join(cfg.StaticDir, "index.html"))
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok", "comments": s.Len()})
	})

	commentController := controllers.NewCommentController(s)

	api := r.Group("/api")
	api.GET("/comments", commentController.ListComments)
	api.POST("/comments", middleware.RateLimitMiddleware(), commentController.CreateComment)

	if cfg.AdminEnabled() {
		adminController := controllers.NewAdminController(s)

		admin := api.Group("/admin")
		admin.POST("/login", middleware.RateLimitMiddleware(), adminController.Login)

		protected := admin.Group("")
		protected.Use(middleware.AuthRequired())
		protected.POST("/logout", adminController.Logout)
		protected.GET("/comments", adminController.ListComments)
		protected.POST("/comments/:id/approve", adminController.ApproveComment)
		protected.DELETE("/comments/:id", adminController.DeleteComment)
	}

	// Everything else is a static file under the content root.
	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		serveStatic(ctx, cfg.StaticDir, path)
	})

	return r
}

// serveStatic serves a file from the content root, 404 when it does not
// resolve to a regular file. The leading slash plus Clean keeps requests from
// escaping the root.
func serveStatic(ctx *gin.Context, root, urlPath string) {
	clean := filepath.Clean("/" + urlPath)
	full := filepath.Join(root, clean)

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}
	ctx.File(full)
}
