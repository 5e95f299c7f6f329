package main

import (
	"github.com/blogkit/comments/config"
	"github.com/blogkit/comments/routes"
	"github.com/blogkit/comments/store"
	"github.com/blogkit/comments/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	s, err := store.Open(cfg.DataFile, cfg.ApprovedDefault)
	if err != nil {
		utils.Sugar.Fatalf("open comment store %s: %v", cfg.DataFile, err)
	}
	utils.Sugar.Infof("comment store loaded from %s (%d comments)", cfg.DataFile, s.Len())

	r := routes.SetupRouter(s)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
