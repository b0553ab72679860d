package routes

import (
	"net/http"

	"disasterguardian/config"
	"disasterguardian/controllers"
	"disasterguardian/events"
	"disasterguardian/interfaces"
	"disasterguardian/middleware"
	"disasterguardian/repositories"
	"disasterguardian/services"
	"disasterguardian/utils"
	"disasterguardian/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the process-wide resources main builds before routing.
type Dependencies struct {
	Config *config.Config
	DB     *mongo.Database
	// Redis may be nil; rate limiting then falls back to process memory
	Redis       *redis.Client
	Hub         *websocket.Hub
	Publisher   events.Publisher
	Dispatcher  interfaces.SMSDispatcher
	SMSSender   interfaces.SMSSender
	EmailSender interfaces.EmailSender
	OTPStore    interfaces.OTPStore
	Revocations interfaces.RevocationStore
	Health      *controllers.HealthController
}

// Router is the configured engine plus the rate limiters whose in-memory
// state the cleanup worker prunes.
type Router struct {
	Engine   *gin.Engine
	Limiters []*middleware.RateLimiter
}

// SetupRoutes initializes all application routes
func SetupRoutes(deps Dependencies) *Router {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Initialize repositories
	repos := initializeRepositories(deps.DB)

	// Initialize services
	services := initializeServices(repos, deps)

	authMiddleware := middleware.NewAuthMiddleware(services.JWT, deps.Revocations, deps.Config.UniformAuthErrors)

	// Initialize controllers
	controllers := initializeControllers(services, deps, authMiddleware)

	limits := newLimiters(deps)

	// Global middleware
	setupGlobalMiddleware(router, deps.Config)

	// Setup route groups
	setupPublicRoutes(router, controllers)
	setupAPIRoutes(router, controllers, authMiddleware, limits)
	setupWebSocketRoutes(router, controllers)

	router.NoRoute(middleware.NotFoundHandler())
	router.NoMethod(middleware.MethodNotAllowedHandler())

	return &Router{
		Engine:   router,
		Limiters: limits.all(),
	}
}

// Repositories initialization
type Repositories struct {
	User      *repositories.UserRepository
	Incident  *repositories.IncidentRepository
	Volunteer *repositories.VolunteerRepository
	Officer   *repositories.OfficerRepository
	Contact   *repositories.ContactRepository
	Donation  *repositories.DonationRepository
	SmsLog    *repositories.SmsLogRepository
}

func initializeRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		User:      repositories.NewUserRepository(db),
		Incident:  repositories.NewIncidentRepository(db),
		Volunteer: repositories.NewVolunteerRepository(db),
		Officer:   repositories.NewOfficerRepository(db),
		Contact:   repositories.NewContactRepository(db),
		Donation:  repositories.NewDonationRepository(db),
		SmsLog:    repositories.NewSmsLogRepository(db),
	}
}

// Services initialization
type Services struct {
	JWT           *utils.JWTService
	Auth          *services.AuthService
	PasswordReset *services.PasswordResetService
	User          *services.UserService
	Incident      *services.IncidentService
	Volunteer     *services.VolunteerService
	Officer       *services.OfficerService
	Contact       *services.ContactService
	Donation      *services.DonationService
	SmsLog        *services.SmsLogService
}

func initializeServices(repos *Repositories, deps Dependencies) *Services {
	cfg := deps.Config
	validator := utils.NewValidationService()
	passwords := utils.NewPasswordService(cfg.BcryptCost)
	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	notifications := services.NewNotificationService(repos.Contact, repos.Incident, deps.Dispatcher, deps.Publisher)

	return &Services{
		JWT:  jwtService,
		Auth: services.NewAuthService(repos.User, jwtService, passwords, validator, deps.Revocations),
		PasswordReset: services.NewPasswordResetService(repos.User, deps.OTPStore, deps.SMSSender, deps.EmailSender,
			passwords, validator, services.PasswordResetConfig{
				TTL:        cfg.OTPTTL,
				ExposeCode: cfg.IsDevelopment(),
			}),
		User:      services.NewUserService(repos.User, validator),
		Incident:  services.NewIncidentService(repos.Incident, repos.Volunteer, repos.Officer, repos.User, notifications, validator),
		Volunteer: services.NewVolunteerService(repos.Volunteer, repos.User, repos.Incident, notifications, validator),
		Officer:   services.NewOfficerService(repos.Officer, repos.Incident, notifications, validator),
		Contact:   services.NewContactService(repos.Contact, validator),
		Donation:  services.NewDonationService(repos.Donation, validator),
		SmsLog:    services.NewSmsLogService(repos.SmsLog),
	}
}

// Controllers initialization
type Controllers struct {
	Auth          *controllers.AuthController
	PasswordReset *controllers.PasswordResetController
	User          *controllers.UserController
	Incident      *controllers.IncidentController
	Volunteer     *controllers.VolunteerController
	Officer       *controllers.OfficerController
	Contact       *controllers.ContactController
	Donation      *controllers.DonationController
	SmsLog        *controllers.SmsLogController
	WebSocket     *controllers.WebSocketController
	Health        *controllers.HealthController
}

func initializeControllers(s *Services, deps Dependencies, authMiddleware *middleware.AuthMiddleware) *Controllers {
	health := deps.Health
	if health == nil {
		health = controllers.NewHealthController(deps.Config.Version)
	}

	return &Controllers{
		Auth:          controllers.NewAuthController(s.Auth),
		PasswordReset: controllers.NewPasswordResetController(s.PasswordReset),
		User:          controllers.NewUserController(s.User),
		Incident:      controllers.NewIncidentController(s.Incident),
		Volunteer:     controllers.NewVolunteerController(s.Volunteer, s.Incident),
		Officer:       controllers.NewOfficerController(s.Officer),
		Contact:       controllers.NewContactController(s.Contact),
		Donation:      controllers.NewDonationController(s.Donation),
		SmsLog:        controllers.NewSmsLogController(s.SmsLog),
		WebSocket:     controllers.NewWebSocketController(deps.Hub, authMiddleware, deps.Config.CORSOrigins),
		Health:        health,
	}
}

type limiters struct {
	api  *middleware.RateLimiter
	auth *middleware.RateLimiter
	otp  *middleware.RateLimiter
}

func newLimiters(deps Dependencies) *limiters {
	cfg := deps.Config
	if !cfg.RateLimitEnabled {
		logrus.Warn("⚠️ Rate limiting disabled")
		return &limiters{}
	}
	return &limiters{
		api:  middleware.APIRateLimit(deps.Redis, cfg.RateLimitRequest, cfg.RateLimitWindow),
		auth: middleware.AuthRateLimit(deps.Redis),
		otp:  middleware.OTPRateLimit(deps.Redis),
	}
}

func (l *limiters) all() []*middleware.RateLimiter {
	var out []*middleware.RateLimiter
	for _, rl := range []*middleware.RateLimiter{l.api, l.auth, l.otp} {
		if rl != nil {
			out = append(out, rl)
		}
	}
	return out
}

// limit returns a no-op when rate limiting is disabled
func limit(rl *middleware.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}

// Global middleware setup
func setupGlobalMiddleware(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.DefaultLoggerMiddleware())
	router.Use(middleware.NewErrorHandler(cfg.Environment, logrus.StandardLogger()).Handle())
	router.Use(middleware.CORS(middleware.NewCORSConfig(cfg.CORSOrigins)))
	router.Use(middleware.Metrics())
}

// Public routes (no authentication required)
func setupPublicRoutes(router *gin.Engine, controllers *Controllers) {
	router.GET("/health", controllers.Health.HealthCheck)
	router.GET("/health/detailed", controllers.Health.DetailedHealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "Disaster Guardian API", "status": "running"})
	})
}

// API routes under /api; each area decides which endpoints need a token
func setupAPIRoutes(router *gin.Engine, controllers *Controllers, authMiddleware *middleware.AuthMiddleware, limits *limiters) {
	api := router.Group("/api")

	SetupAuthRoutes(api, controllers.Auth, controllers.PasswordReset, authMiddleware, limits)
	SetupDonationRoutes(api, controllers.Donation, authMiddleware, limits)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(limit(limits.api))

	SetupUserRoutes(protected, controllers.User)
	SetupIncidentRoutes(protected, controllers.Incident)
	SetupVolunteerRoutes(protected, controllers.Volunteer)
	SetupOfficerRoutes(protected, controllers.Officer)
	SetupContactRoutes(protected, controllers.Contact)
	SetupAdminRoutes(protected, controllers.SmsLog, controllers.WebSocket)
}

// WebSocket routes
func setupWebSocketRoutes(router *gin.Engine, controllers *Controllers) {
	SetupWebSocketRoutes(router, controllers.WebSocket)
}
