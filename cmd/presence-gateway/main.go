package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/adapters/in/ws"
	"github.com/EthanQC/presence-gateway/internal/adapters/out/httpapi"
	"github.com/EthanQC/presence-gateway/internal/adapters/out/mq"
	redisAdapter "github.com/EthanQC/presence-gateway/internal/adapters/out/redis"
	"github.com/EthanQC/presence-gateway/internal/application"
	"github.com/EthanQC/presence-gateway/internal/metrics"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
	"github.com/EthanQC/presence-gateway/pkg/zlog"
)

const serviceName = "presence-gateway"

func main() {
	// 加载配置
	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logCfg, err := zlog.FromViper(viper.GetViper(), serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载日志配置失败: %v\n", err)
		os.Exit(1)
	}
	zlog.MustInitGlobal(*logCfg)
	defer zap.L().Sync()

	logger := zap.L()
	logger.Info("presence-gateway starting", zap.String("env", os.Getenv("APP_ENV")))

	// 指标注册
	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	zlog.RegisterMetrics(registry)

	// 初始化Redis
	redisClient, err := initRedis()
	if err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis 连接成功")

	// 出站适配器
	presenceStore := redisAdapter.NewPresenceStoreRedis(redisClient)
	hub := ws.NewHub()
	relay := redisAdapter.NewRoomRelay(redisClient, hub)

	svcTimeout := viper.GetDuration("services.timeout")
	authClient := httpapi.NewAuthClient(viper.GetString("services.auth_base_url"), svcTimeout)
	userClient := httpapi.NewUserClient(viper.GetString("services.user_base_url"), svcTimeout)
	friendClient := httpapi.NewFriendClient(viper.GetString("services.friend_base_url"), svcTimeout)

	publisher, err := mq.NewKafkaStatusPublisher(viper.GetStringSlice("kafka.brokers"))
	if err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer publisher.Close()

	// 应用层
	watchRooms := application.NewWatchRooms(relay, presenceStore)
	session := application.NewSession(authClient, friendClient, presenceStore, watchRooms, relay, publisher)

	handlers := []in.TopicHandler{
		application.NewStatusHandler(presenceStore, relay),
		application.NewFriendHandler(watchRooms, userClient, relay),
		application.NewAuthHandler(relay),
		application.NewImageHandler(userClient),
	}

	dispatcher, err := mq.NewTopicDispatcher(
		viper.GetStringSlice("kafka.brokers"),
		viper.GetString("kafka.group_id"),
		viper.GetDuration("kafka.session_timeout"),
		handlers,
	)
	if err != nil {
		logger.Fatal("Failed to init kafka consumer", zap.Error(err))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// 房间操作中继
	go func() {
		if err := relay.Run(rootCtx); err != nil && rootCtx.Err() == nil {
			logger.Fatal("room relay stopped", zap.Error(err))
		}
	}()

	// Kafka 消费
	go func() {
		if err := dispatcher.Start(rootCtx); err != nil && rootCtx.Err() == nil {
			logger.Fatal("topic dispatcher stopped", zap.Error(err))
		}
	}()

	// HTTP / WebSocket 入口
	if os.Getenv("APP_ENV") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(zlog.GinLogger(), gin.Recovery())

	gateway := ws.NewGateway(hub, session)
	gateway.RegisterRoutes(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.Any("/log/level", gin.WrapF(zlog.LevelHTTPHandler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	rootCancel()
	if err := dispatcher.Stop(); err != nil {
		logger.Warn("dispatcher stop failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	logger.Info("Server exited properly")
}

func loadConfig() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetDefault("server.port", 3002)
	viper.SetDefault("kafka.group_id", "STATUS")
	viper.SetDefault("kafka.session_timeout", "10s")
	viper.SetDefault("services.timeout", "3s")

	return viper.ReadInConfig()
}

func initRedis() (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
		PoolSize: viper.GetInt("redis.pool_size"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
