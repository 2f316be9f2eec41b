package main

import (
	"context"
	"flag"
	"strings"

	"commust/internal/applog"
	"commust/internal/config"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "", "email of the account to reset")
	password := flag.String("password", "", "new password")
	flag.Parse()

	log, _, err := applog.New().Level("info").Make()
	if err != nil {
		panic(err)
	}

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on system env")
	}
	if *email == "" || len(*password) < 6 {
		log.Fatal().Msg("usage: reset-password -email <email> -password <at least 6 characters>")
	}
	cfg := config.Load()

	// 2. Setup Database
	db, err := database.ConnectDB(database.Config{
		Driver:      cfg.DBDriver,
		DatabaseURL: cfg.DatabaseURL,
		Host:        cfg.DBHost,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		Name:        cfg.DBName,
		Port:        cfg.DBPort,
		SQLitePath:  cfg.SQLitePath,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("user not found")
	}

	// 4. Hash new password
	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	// 5. Update
	if err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.Fatal().Err(err).Msg("update password")
	}

	log.Info().Str("email", user.Email).Msg("password reset")
}
