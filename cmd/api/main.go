package main

import (
	"context"
	"log"
	"net/http"

	"github.com/brokerdesk/submission-backend/config"
	"github.com/brokerdesk/submission-backend/internal/auth"
	"github.com/brokerdesk/submission-backend/internal/bootstrap"
	"github.com/brokerdesk/submission-backend/internal/maintenance"
	"github.com/brokerdesk/submission-backend/internal/storage/postgres"

	fbauth "firebase.google.com/go/v4/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	defer pool.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	var authClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		log.Println("Firebase auth enabled")
	} else {
		log.Println("Firebase auth disabled, using optional user middleware")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "submission-backend",
		Version:     cfg.App.Version,
		Cfg:         cfg,
		DB:          db,
		Pool:        pool,
		Redis:       redisClient,
		AuthClient:  authClient,
	})

	maintenance.NewScheduler(router.Documents, router.Comparisons).Start()

	addr := ":" + cfg.Server.Port
	log.Printf("listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, router.Engine))
}
