package main

import (
	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/models"
	"github.com/krishiyukti/krishiyukti/routes"
	"github.com/krishiyukti/krishiyukti/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.UserDevice{}, &models.Profile{}, &models.Activity{}, &models.Redemption{})

	r := routes.SetupRouter(db, routes.BuildServices(cfg))

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
