package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymdesk/internal/access"
	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"
	"gymdesk/internal/config"
	"gymdesk/internal/deposit"
	"gymdesk/internal/email"
	"gymdesk/internal/installment"
	"gymdesk/internal/logger"
	"gymdesk/internal/membership"
	"gymdesk/internal/referral"
	"gymdesk/internal/schedule"
	"gymdesk/internal/user"
)

type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	db      *sqlx.DB
	config  *config.Config
	email   *email.Service

	// Deposits is exposed so main can hand the refill service to the
	// cron scheduler, Memberships and Installments for the startup
	// status sync and reminder sweep.
	Deposits     deposit.Service
	Memberships  membership.Service
	Installments installment.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	userRepo := user.NewRepository(db)
	membershipRepo := membership.NewRepository(db)
	depositRepo := deposit.NewRepository(db)
	installmentRepo := installment.NewRepository(db)
	checkinRepo := access.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)
	referralRepo := referral.NewRepository(db)

	notifier := newMailNotifier(userRepo, emailService)
	membershipService := membership.NewService(membershipRepo, depositRepo)
	depositService := deposit.NewService(depositRepo, membershipRepo, notifier)
	installmentService := installment.NewService(installmentRepo, membershipRepo, depositRepo, notifier)
	gate := access.NewService(membershipService, installmentService)
	scheduleService := schedule.NewService(scheduleRepo, gate, membershipService, notifier)
	referralService := referral.NewService(referralRepo)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	membershipHandler := membership.NewHandler(membershipService, cfg.Location)
	depositHandler := deposit.NewHandler(depositService)
	installmentHandler := installment.NewHandler(installmentService, cfg.Location)
	accessHandler := access.NewHandler(gate, checkinRepo, cfg.JWTSecret, cfg.Location)
	scheduleHandler := schedule.NewHandler(scheduleService, cfg.Location)
	referralHandler := referral.NewHandler(referralService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/packages", membershipHandler.ListPackages)
		protected.GET("/memberships", membershipHandler.ListMyMemberships)
		protected.GET("/deposit", depositHandler.GetMyDeposit)

		protected.POST("/requests", installmentHandler.CreateRequest)
		protected.GET("/requests", installmentHandler.ListMine)

		protected.GET("/access", accessHandler.Check)
		protected.GET("/access/qr", accessHandler.QrPass)
		protected.GET("/access/history", accessHandler.History)

		protected.GET("/schedule", scheduleHandler.ListSlots)
		protected.POST("/schedule/:slotID/book", scheduleHandler.Book)
		protected.GET("/bookings", scheduleHandler.MyBookings)
		protected.DELETE("/bookings/:bookingID", scheduleHandler.Cancel)

		protected.GET("/referral", referralHandler.MyAccount)
		protected.POST("/referral/apply", referralHandler.ApplyCode)
		protected.POST("/referral/redeem", referralHandler.Redeem)
		protected.GET("/referral/transactions", referralHandler.Transactions)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/requests", installmentHandler.ListByStatus)
		admin.POST("/requests/:requestID/approve", installmentHandler.Approve)
		admin.POST("/requests/:requestID/reject", installmentHandler.Reject)
		admin.POST("/requests/:requestID/installments/:number/pay", installmentHandler.RecordPayment)
		admin.DELETE("/requests/:requestID/installments/3", installmentHandler.DeleteThirdInstallment)

		admin.POST("/deposits/:userID/refill", depositHandler.ForceRefill)
		admin.POST("/deposits/refill-run", depositHandler.RunRefills)
		admin.POST("/memberships/sync", membershipHandler.SyncStatuses)

		admin.POST("/checkin", accessHandler.Checkin)

		admin.POST("/schedule", scheduleHandler.CreateSlot)
		admin.PATCH("/schedule/:slotID", scheduleHandler.SetSlotActive)

		admin.POST("/referral/:userID/award", referralHandler.Award)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router:       router,
		db:           db,
		config:       cfg,
		email:        emailService,
		Deposits:     depositService,
		Memberships:  membershipService,
		Installments: installmentService,
	}
}

func (s *Server) Start(port string) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// mailNotifier bridges domain events to the email queue. It satisfies the
// notifier interfaces of the schedule, deposit and installment services.
type mailNotifier struct {
	users user.Repository
	email *email.Service
}

func newMailNotifier(users user.Repository, emailService *email.Service) *mailNotifier {
	return &mailNotifier{users: users, email: emailService}
}

func (n *mailNotifier) NotifyBooking(ctx context.Context, userID int, slot schedule.Slot) {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Booking confirmation skipped, user %d lookup failed: %v", userID, err)
		return
	}
	if err := n.email.SendBookingConfirmation(ctx, u.Email, u.Name, slot.Date.String(), slot.StartTime); err != nil {
		logger.Errorf("Failed to queue booking confirmation for %s: %v", u.Email, err)
	}
}

func (n *mailNotifier) NotifyRefill(ctx context.Context, userID, credits int) {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Refill notice skipped, user %d lookup failed: %v", userID, err)
		return
	}
	if err := n.email.SendRefillNotice(ctx, u.Email, u.Name, credits); err != nil {
		logger.Errorf("Failed to queue refill notice for %s: %v", u.Email, err)
	}
}

func (n *mailNotifier) NotifyDecision(ctx context.Context, userID int, decision string) {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Decision notice skipped, user %d lookup failed: %v", userID, err)
		return
	}
	if err := n.email.SendRequestDecision(ctx, u.Email, u.Name, decision); err != nil {
		logger.Errorf("Failed to queue decision notice for %s: %v", u.Email, err)
	}
}

func (n *mailNotifier) NotifyReminder(ctx context.Context, userID int, amountCents int64, dueDate caldate.Date) {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		logger.Errorf("Payment reminder skipped, user %d lookup failed: %v", userID, err)
		return
	}
	if err := n.email.SendInstallmentReminder(ctx, u.Email, u.Name, amountCents, dueDate.String()); err != nil {
		logger.Errorf("Failed to queue payment reminder for %s: %v", u.Email, err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
