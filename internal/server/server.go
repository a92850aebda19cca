package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/chain"
	"github.com/tabledadrian/adrian-backend/internal/config"
	"github.com/tabledadrian/adrian-backend/internal/eligibility"
	"github.com/tabledadrian/adrian-backend/internal/handler"
	appmw "github.com/tabledadrian/adrian-backend/internal/middleware"
	"github.com/tabledadrian/adrian-backend/internal/profile"
	"github.com/tabledadrian/adrian-backend/internal/repository"
	"github.com/tabledadrian/adrian-backend/internal/service"
	"github.com/tabledadrian/adrian-backend/internal/storage"
	"gorm.io/gorm"
)

type Server struct {
	e          *echo.Echo
	userRepo   repository.UserRepository
	assessRepo repository.AssessmentRepository
	rewardRepo repository.UserRewardRepository
	mintRepo   repository.NftMintRepository
	mints      service.MintService
	closers    []io.Closer
	dbReady    atomic.Bool
}

// New wires every component from cfg. db may be nil; repositories report
// ErrDBNotReady until SetDB is called. rdb may be nil, which disables the
// response cache and rate limiting.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", echo.HeaderXRequestID},
		ExposeHeaders: []string{
			echo.HeaderXRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After", handler.HeaderDegraded,
		},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.Origins),
	}))

	s := &Server{e: e}
	s.dbReady.Store(db != nil)
	if rdb != nil {
		s.closers = append(s.closers, rdb)
	}
	dev := cfg.Development()
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	s.userRepo = repository.NewUserRepository(db)
	s.assessRepo = repository.NewAssessmentRepository(db)
	s.rewardRepo = repository.NewUserRewardRepository(db)
	s.mintRepo = repository.NewNftMintRepository(db)

	// chain
	var reader chain.BalanceReader
	if r, client, err := chain.Dial(context.Background(), cfg.Chain.RPCURL); err != nil {
		log.Printf("[server] rpc dial failed url=%s: %v", cfg.Chain.RPCURL, err)
	} else {
		reader = r
		s.closers = append(s.closers, closerFunc(func() error { client.Close(); return nil }))
	}
	preparer, preparerErr := chain.NewMintPreparer(cfg.Chain.NFTContract, cfg.Chain.ChainID, cfg.Chain.MintPriceWei)
	if preparerErr != nil {
		log.Printf("[server] mint disabled: %v", preparerErr)
	}

	prices := eligibility.NewPriceResolver(
		cfg.Gate.EURPrice,
		eligibility.NewHTTPPriceSource(cfg.Gate.PriceFeedURL, cfg.Gate.PriceFeedAPIKey, httpClient),
		cfg.Chain.TokenAddress,
		cfg.UpstreamTimeout,
	)
	eligSvc := service.NewEligibilityService(reader, service.EligibilityConfig{
		TokenAddress:    cfg.Chain.TokenAddress,
		Decimals:        cfg.Chain.TokenDecimals,
		AccessThreshold: cfg.Gate.AccessThreshold,
		BonusThreshold:  cfg.Gate.BonusThreshold,
		MinEURValue:     cfg.Gate.MinEURValue,
	}, prices, s.userRepo)

	// identity
	resolver := profile.NewResolver(profile.Config{
		NeynarBaseURL: cfg.Profile.NeynarBaseURL,
		NeynarAPIKey:  cfg.Profile.NeynarAPIKey,
		HubBaseURL:    cfg.Profile.HubBaseURL,
		FnameBaseURL:  cfg.Profile.FnameBaseURL,
		Timeout:       cfg.UpstreamTimeout,
	}, httpClient)

	// image generation
	generator := ai.NewGenerator(imageProviders(cfg.Image), &http.Client{}, cfg.Image.Timeout, s.imageStoreOption(cfg.Storage)...)

	// assessments
	var publisher service.Publisher
	if strings.TrimSpace(cfg.Storage.PinataJWT) != "" {
		publisher = storage.NewPinataPinner(cfg.Storage.PinataBaseURL, cfg.Storage.PinataJWT, cfg.Storage.GatewayPattern, &http.Client{Timeout: 60 * time.Second})
	} else {
		log.Printf("[server] PINATA_JWT is not set; assessment PDFs are disabled")
	}
	planWriter := ai.NewPlanWriter(cfg.Image.GeminiAPIKey, cfg.Image.TextModel)

	unitPrice, err := decimal.NewFromString(strings.TrimSpace(cfg.Chain.MintUnitPrice))
	if err != nil {
		log.Printf("[server] MINT_UNIT_PRICE %q is not a number, using 0", cfg.Chain.MintUnitPrice)
		unitPrice = decimal.Zero
	}

	s.mints = service.NewMintService(preparer, preparerErr, eligSvc, s.mintRepo, s.userRepo)

	eligHandler := handler.NewEligibilityHandler(eligSvc, dev)
	userHandler := handler.NewUserHandler(service.NewUserService(s.userRepo), dev)
	profileHandler := handler.NewProfileHandler(service.NewProfileService(resolver), dev)
	nftHandler := handler.NewNFTHandler(service.NewNFTService(resolver, generator), dev)
	mintHandler := handler.NewMintHandler(s.mints, dev)
	boardHandler := handler.NewLeaderboardHandler(service.NewLeaderboardService(s.mintRepo, unitPrice))
	assessHandler := handler.NewAssessmentHandler(service.NewAssessmentService(s.assessRepo, s.userRepo, planWriter, publisher), dev)
	rewardHandler := handler.NewRewardHandler(service.NewRewardService(s.rewardRepo, s.userRepo, eligSvc, service.RewardAmounts{
		Social: cfg.Rewards.SocialAmount,
		Holder: cfg.Rewards.HolderAmount,
	}), dev)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"db":         boolString(s.dbReady.Load()),
			"git_sha":    cfg.GitSHA,
			"build_time": cfg.Build,
		})
	})

	cache := appmw.ResponseCache(cfg.Cache, rdb)
	limit := appmw.RateLimit(cfg.RateLimit, rdb)

	api := e.Group("/api")
	api.POST("/eligibility/check", eligHandler.Check)
	api.POST("/eligibility/value", eligHandler.Value)
	api.POST("/users", userHandler.Upsert)
	api.GET("/users/:wallet", userHandler.Get)
	api.GET("/profile", profileHandler.Get)
	api.POST("/nft/generate", nftHandler.Generate, limit)
	api.POST("/mint/prepare", mintHandler.Prepare)
	api.POST("/mint/record", mintHandler.Record)
	api.GET("/leaderboard", boardHandler.Leaderboard, cache)
	api.GET("/gallery", boardHandler.Gallery, cache)
	api.POST("/assessments", assessHandler.Create)
	api.GET("/assessments/:id", assessHandler.Get)
	api.POST("/assessments/:id/pdf", assessHandler.GeneratePDF)
	api.POST("/assessments/:id/download", assessHandler.Download)
	api.POST("/rewards/claim", rewardHandler.Claim)
	api.GET("/rewards/:wallet", rewardHandler.Get)

	return s
}

// imageProviders orders the chain: portrait editors first, prompt-only last.
// Editors without credentials are left out.
func imageProviders(cfg config.ImageConfig) []ai.Provider {
	var providers []ai.Provider
	if strings.TrimSpace(cfg.ReplicateToken) != "" {
		rc := ai.NewReplicateClient(cfg.ReplicateBaseURL, cfg.ReplicateToken, &http.Client{})
		providers = append(providers,
			ai.NewInstantIDProvider(rc, cfg.InstantIDModel, cfg.IDStrength, cfg.IDControlStrength, cfg.IDGuidance),
			ai.NewImg2ImgProvider(rc, cfg.Img2ImgModel, cfg.Img2ImgStrength),
		)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		providers = append(providers,
			ai.NewGeminiEditProvider(ai.NewGeminiImageClient(cfg.GeminiAPIKey, cfg.GeminiImageModel, &http.Client{})),
			ai.NewImagenProvider(cfg.GeminiAPIKey, cfg.ImagenModel),
		)
	}
	providers = append(providers, ai.NewPollinationsProvider(cfg.PollinationsURL, &http.Client{}))
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	log.Printf("[server] image providers=%s", strings.Join(names, ","))
	return providers
}

func (s *Server) imageStoreOption(cfg config.StorageConfig) []ai.GeneratorOption {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
	if err != nil {
		log.Printf("[server] image store disabled bucket=%s: %v", cfg.Bucket, err)
		return nil
	}
	s.closers = append(s.closers, store)
	return []ai.GeneratorOption{ai.WithImageStore(store)}
}

// allowOrigin accepts local development origins and any host under suffix.
func allowOrigin(suffix string) func(origin string) (bool, error) {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		if suffix != "" && strings.HasSuffix(u.Hostname(), suffix) {
			return true, nil
		}
		return false, nil
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) SetDB(db *gorm.DB) {
	s.userRepo.SetDB(db)
	s.assessRepo.SetDB(db)
	s.rewardRepo.SetDB(db)
	s.mintRepo.SetDB(db)
	s.dbReady.Store(db != nil)
}

// Shutdown stops accepting requests, waits for detached mint writes and
// releases upstream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.mints.Wait()
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			log.Printf("[server] close: %v", cerr)
		}
	}
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
