package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"agrimandi-auction-service/internal/adapters/commands"
	"agrimandi-auction-service/internal/adapters/db"
	"agrimandi-auction-service/internal/adapters/events"
	"agrimandi-auction-service/internal/adapters/redis"
	"agrimandi-auction-service/internal/adapters/sweeper"
	"agrimandi-auction-service/internal/app"
	"agrimandi-auction-service/internal/config"
	"agrimandi-auction-service/internal/domain/bid"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Agrimandi Auction Service...")

	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	repoFactory := db.NewRepositoryFactory(dbConn)
	auctionRepo := repoFactory.GetAuctionRepository()
	bidRepo := repoFactory.GetBidRepository()
	settlementRepo := repoFactory.GetSettlementRepository()
	userRepo := repoFactory.GetUserRepository()

	log.Info().Msg("Database repositories initialized")

	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	publisher := events.NewRedisPublisher(events.RedisPublisherParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	recorder := app.NewSettlementRecorder(app.SettlementRecorderParams{
		BidRepo:        bidRepo,
		SettlementRepo: settlementRepo,
		Logger:         log.Logger,
	})

	lifecycleService := app.NewLifecycleService(app.LifecycleServiceParams{
		AuctionRepo: auctionRepo,
		BidRepo:     bidRepo,
		UserRepo:    userRepo,
		Recorder:    recorder,
		Publisher:   publisher,
		Logger:      log.Logger,
	})

	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:     bidRepo,
		AuctionRepo: auctionRepo,
		UserRepo:    userRepo,
		Validator:   bid.NewValidator(bid.Policy{MinIncrement: cfg.Engine.BidMinIncrement}),
		Publisher:   publisher,
		Logger:      log.Logger,
	})

	settlementService := app.NewSettlementService(app.SettlementServiceParams{
		SettlementRepo: settlementRepo,
		BidRepo:        bidRepo,
		UserRepo:       userRepo,
		Lifecycle:      lifecycleService,
		Publisher:      publisher,
		Logger:         log.Logger,
	})

	log.Info().Msg("Business services initialized")

	commandConsumer := commands.NewConsumer(commands.ConsumerParams{
		RedisClient: redisClient,
		Bids:        bidService,
		Settlements: settlementService,
		Logger:      log.Logger,
	})
	commandConsumer.Start()
	log.Info().Msg("Command consumer started")

	expirySweeper := sweeper.NewSweeper(sweeper.SweeperParams{
		AuctionRepo: auctionRepo,
		Closer:      lifecycleService,
		Interval:    cfg.Engine.SweepInterval,
		MaxWorkers:  cfg.Engine.SweepMaxWorkers,
		BatchSize:   cfg.Engine.SweepBatchSize,
		Logger:      log.Logger,
	})

	expirySweeper.Start()
	log.Info().Msg("Expiry sweeper started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	log.Info().Msg("Starting graceful shutdown...")

	expirySweeper.Stop()
	log.Info().Msg("Expiry sweeper stopped")

	commandConsumer.Stop()
	log.Info().Msg("Command consumer stopped")

	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis client")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
