package main

import (
	"os"

	"github.com/yigit/studygraph/internal/pkg/logger"
)

// @title StudyGraph API
// @version 1.0
// @description Course matching and study-space suggestions for students sharing classes

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
