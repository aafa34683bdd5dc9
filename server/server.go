package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"store-rating-server/auth"
	"store-rating-server/confs"
	"store-rating-server/entities"
	"store-rating-server/handlers"
	httpHandler "store-rating-server/handlers/http"
	"store-rating-server/logging"
	"store-rating-server/metrics"
	"store-rating-server/middleware"
	"store-rating-server/repositories"
	"store-rating-server/usecases"
	"store-rating-server/ws"
)

// Repositories is the storage backend the server runs on.
type Repositories struct {
	Users   repositories.UserRepository
	Stores  repositories.StoreRepository
	Ratings repositories.RatingRepository
}

type Server struct {
	app     *gin.Engine
	cfg     *confs.Config
	log     *logrus.Logger
	limiter *middleware.RateLimiter
}

func NewServer(cfg *confs.Config, repos Repositories, log *logrus.Logger) *Server {
	app := gin.New()
	app.Use(gin.Recovery(), logging.RequestLogger(log), metrics.Middleware())

	s := &Server{
		app:     app,
		cfg:     cfg,
		log:     log,
		limiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, log),
	}
	s.routes(repos)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	if s.cfg.AllowAllOrigins() {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.cfg.CORSAllowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return config
}

func (s *Server) routes(repos Repositories) {
	s.app.Use(cors.New(s.corsConfig()))

	hasher := auth.NewPasswordHasher(s.cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(s.cfg.JWTSecret, s.cfg.JWTTTL)
	manager := ws.NewManager(s.log)

	// Initialize use cases
	authUseCase := usecases.NewAuthUseCase(repos.Users, hasher, tokens)
	userUseCase := usecases.NewUserUseCase(repos.Users, repos.Stores, repos.Ratings, hasher)
	storeUseCase := usecases.NewStoreUseCase(repos.Stores, repos.Users, repos.Ratings)
	ratingUseCase := usecases.NewRatingUseCase(repos.Ratings, repos.Stores, manager, s.log)

	// Initialize handlers
	authHandler := httpHandler.NewAuthHandler(authUseCase, s.log)
	userHandler := httpHandler.NewUserHandler(userUseCase, s.log)
	storeHandler := httpHandler.NewStoreHandler(storeUseCase, s.log)
	ratingHandler := httpHandler.NewRatingHandler(ratingUseCase, s.log)
	liveHandler := handlers.NewLiveHandler(manager, ratingUseCase, s.log)

	requireAuth := middleware.RequireAuth(tokens)
	adminOnly := middleware.RequireRole(entities.RoleSystemAdmin)

	s.app.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.app.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "Server is running"})
		})

		authRoutes := api.Group("/auth", s.limiter.Handler())
		{
			authRoutes.POST("/signup", middleware.ValidateSignup(), authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
		}

		users := api.Group("/users", requireAuth)
		{
			users.PUT("/password", userHandler.UpdatePassword)
			users.GET("", adminOnly, userHandler.ListUsers)
			users.POST("", adminOnly, middleware.ValidateSignup(), userHandler.CreateUser)
			users.GET("/stats", adminOnly, userHandler.Stats)
			users.GET("/:id", userHandler.GetUser)
		}

		stores := api.Group("/stores")
		{
			stores.POST("", requireAuth, adminOnly, storeHandler.CreateStore)
			stores.GET("", storeHandler.ListStores)
			stores.GET("/owner/dashboard", requireAuth,
				middleware.RequireRole(entities.RoleStoreOwner, entities.RoleSystemAdmin), storeHandler.OwnerDashboard)
			stores.GET("/:id", storeHandler.GetStore)
			stores.GET("/:id/live", liveHandler.HandleStoreLive)
		}

		ratings := api.Group("/ratings")
		{
			ratings.POST("", requireAuth, ratingHandler.SubmitRating)
			ratings.GET("/store/:storeId/user", requireAuth, ratingHandler.GetUserRating)
			ratings.GET("/store/:storeId", ratingHandler.GetStoreRatings)
		}
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests for up
// to SHUTDOWN_TIMEOUT.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.limiter.StartCleanup(ctx, 10*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
