package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gator-forum/internal/config"
	"gator-forum/internal/logger"
	"gator-forum/simulator"

	"go.uber.org/zap"
)

func main() {
	// The simulator signs tokens with the engine's secret, so it shares its configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	simConfig := simulator.DefaultConfig()
	simConfig.JWTSecret = cfg.Auth.JWTSecret
	simConfig.Issuer = cfg.Auth.Issuer
	simConfig.EngineURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	if url := os.Getenv("SIM_ENGINE_URL"); url != "" {
		simConfig.EngineURL = url
	}

	log.Info("starting simulation",
		zap.String("engineUrl", simConfig.EngineURL),
		zap.Int("users", simConfig.NumUsers),
		zap.Int("subreddits", simConfig.NumSubreddits),
		zap.Duration("duration", simConfig.SimulationTime),
		zap.Float64("postFrequency", simConfig.PostFrequency),
		zap.Float64("commentFrequency", simConfig.CommentFrequency),
		zap.Float64("voteFrequency", simConfig.VoteFrequency),
		zap.Float64("zipfS", simConfig.ZipfS),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, simConfig.SimulationTime)
	defer cancel()

	sim := simulator.NewSimulator(simConfig, log)
	if err := sim.Run(ctx); err != nil {
		log.Fatal("simulation failed", zap.Error(err))
	}

	metrics := sim.GetMetrics()
	log.Info("simulation completed",
		zap.Int("users", metrics.TotalUsers),
		zap.Int("subreddits", metrics.TotalSubreddits),
		zap.Int("joins", metrics.TotalJoins),
		zap.Int("follows", metrics.TotalFollows),
		zap.Int("posts", metrics.TotalPosts),
		zap.Int("comments", metrics.TotalComments),
		zap.Int("votes", metrics.TotalVotes),
		zap.Int64("requests", metrics.TotalRequests),
		zap.Int64("failed", metrics.FailedRequests),
		zap.Duration("avgLatency", metrics.AverageLatency),
		zap.Float64("requestsPerSecond", metrics.RequestsPerSecond),
		zap.Any("errorsByCode", metrics.ErrorsByCode),
	)
}
