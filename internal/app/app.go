package app

import (
	"context"
	"log"
	"time"

	"tush00nka/beseda/internal/config"
	"tush00nka/beseda/internal/handler"
	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/repository"
	"tush00nka/beseda/internal/service"
	"tush00nka/beseda/internal/ws"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func Run(cfg *config.Config) {
	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}

	rdb, err := repository.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	cacheRepo := repository.NewChatCacheRepository(rdb)
	cacheService := service.NewChatCacheService(cacheRepo)

	presence := ws.NewPresenceStore()
	hub := ws.NewHub(presence, userRepo, cacheService)
	// Стартовый контракт: после рестарта никто не "онлайн"
	hub.ResetPresence(context.Background())

	tokens := auth.NewTokenManager(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)

	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(chatRepo, userRepo, cacheService, hub)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	cookieOpts := auth.CookieOptions{
		Domain: cfg.CookieDomain,
		Secure: cfg.IsProduction(),
	}

	authHandler := handler.NewAuthHandler(userService, tokens, oauthConfig, cfg.FrontendURL, cookieOpts)
	userHandler := handler.NewUserHandler(userService, tokens)
	chatHandler := handler.NewChatHandler(chatService, tokens)
	wsHandler := ws.NewHandler(hub)

	server := NewServer(authHandler, userHandler, chatHandler, wsHandler)
	server.Run(cfg.ServerPort, cfg.FrontendURL)
}
