package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"e2e_relay/internal/config"
	blockRepo "e2e_relay/internal/repository/block"
	convRepo "e2e_relay/internal/repository/conversation"
	messageRepo "e2e_relay/internal/repository/message"
	userRepo "e2e_relay/internal/repository/user"
	"e2e_relay/internal/service/auth"
	redisSvc "e2e_relay/internal/service/redis"
	"e2e_relay/internal/service/registry"
	"e2e_relay/internal/service/relay"
	"e2e_relay/internal/service/server"
	"e2e_relay/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	mongoDBClient, err := initMongo(cfg.Mongo.URI)
	if err != nil {
		log.Fatal("connect to mongo failed", zap.Error(err))
	}

	db := mongoDBClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	kv := redisSvc.NewRedis(rdb)

	users := userRepo.NewUserRepo(db)
	messages := messageRepo.NewMessageRepo(db)
	blocks := blockRepo.NewBlockRepo(db)
	conversations := convRepo.NewConversationRepo(db)

	tokens := auth.NewTokenStore(kv, cfg.Relay.TokenTTL.Duration)
	reg := registry.New()
	dispatcher := relay.NewDispatcher(messages, blocks, conversations, reg, cfg.Relay.SnippetLen)

	srv := server.NewHttpServer(cfg, server.Deps{
		Registry:      reg,
		Dispatcher:    dispatcher,
		Users:         users,
		History:       messages,
		Blocks:        blocks,
		Conversations: conversations,
		Auth:          tokens,
	})

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("relay listening", zap.String("addr", cfg.Server.ListenAddr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	reg.Shutdown()
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
