package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/gradpass/ceremony-tickets/docs"
	v1 "github.com/gradpass/ceremony-tickets/internal/api/handler/v1"
	"github.com/gradpass/ceremony-tickets/internal/api/middleware"
	"github.com/gradpass/ceremony-tickets/internal/config"
	"github.com/gradpass/ceremony-tickets/internal/metrics"
	"github.com/gradpass/ceremony-tickets/internal/pkg/artifact"
	"github.com/gradpass/ceremony-tickets/internal/pkg/gatefeed"
	"github.com/gradpass/ceremony-tickets/internal/pkg/jwthelper"
	"github.com/gradpass/ceremony-tickets/internal/pkg/qrcodec"
	"github.com/gradpass/ceremony-tickets/internal/repository"
	"github.com/gradpass/ceremony-tickets/internal/repository/dao"
	"github.com/gradpass/ceremony-tickets/internal/service"
)

// Dependencies are the process-wide components shared by every handler.
type Dependencies struct {
	Codec *qrcodec.Codec
	Store artifact.Store
	Hub   *gatefeed.Hub
	// Feed receives entry events. It is the Hub itself on a single instance
	// and a redis publisher when instances share a feed.
	Feed gatefeed.Publisher
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

type handlers struct {
	ceremony     *v1.CeremonyHandler
	ticket       *v1.TicketHandler
	request      *v1.RequestHandler
	verification *v1.VerificationHandler
	feed         *v1.FeedHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB, deps Dependencies) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(db, deps))

	return s
}

func (s *Server) initHandlers(db *gorm.DB, deps Dependencies) handlers {
	repo := repository.NewTicketingRepository(dao.NewTicketingDAO(db))

	tickets := service.NewTicketService(repo, deps.Codec, deps.Store, service.IssuanceConfig{
		CodeLength:      s.Config.Tickets.CodeLength,
		MaxCodeAttempts: s.Config.Tickets.MaxCodeAttempts,
	})
	ceremonies := service.NewCeremonyService(repo, tickets)
	requests := service.NewRequestService(repo, tickets)
	verifier := service.NewVerificationService(repo, deps.Codec, deps.Feed)

	return handlers{
		ceremony:     v1.NewCeremonyHandler(ceremonies, tickets),
		ticket:       v1.NewTicketHandler(tickets, ceremonies),
		request:      v1.NewRequestHandler(requests, ceremonies),
		verification: v1.NewVerificationHandler(verifier),
		feed:         v1.NewFeedHandler(deps.Hub, ceremonies, s.Config.API.AllowedCORSDomains),
	}
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New(requestid.WithGenerator(uuid.NewString)))
	s.Router.Use(middleware.RequestLogger())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	var (
		admin     = middleware.RequireRole(jwthelper.RoleAdmin)
		gate      = middleware.RequireRole(jwthelper.RoleAdmin, jwthelper.RoleSecurity)
		graduates = middleware.RequireRole(jwthelper.RoleAdmin, jwthelper.RoleGraduate)
	)

	api := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.PrincipalSigningKey).VerifyJWT())
	{
		api.POST("/ceremonies", admin, h.ceremony.HandleCreateCeremony)
		api.GET("/ceremonies/:ceremonyID", h.ceremony.HandleGetCeremony)
		api.POST("/ceremonies/:ceremonyID/graduates", admin, h.ceremony.HandleRegisterGraduate)
		api.POST("/ceremonies/:ceremonyID/redistribute", admin, h.request.HandleRedistribute)
		api.GET("/ceremonies/:ceremonyID/entry-logs", gate, h.verification.HandleListEntryLogs)
		api.GET("/ceremonies/:ceremonyID/fraud-cases", gate, h.verification.HandleListFraudCases)
		api.GET("/ceremonies/:ceremonyID/feed", gate, h.feed.HandleFeed)

		api.POST("/graduates/:graduateID/tickets/base", admin, h.ticket.HandleIssueBaseTickets)
		api.POST("/graduates/:graduateID/tickets/extra", admin, h.ticket.HandleIssueExtraTickets)
		api.GET("/graduates/:graduateID/tickets", graduates, h.ticket.HandleListGraduateTickets)
		api.POST("/graduates/:graduateID/requests", graduates, h.request.HandleCreateRequest)

		api.POST("/requests/batch", admin, h.request.HandleBatchProcess)
		api.GET("/requests/:requestID", graduates, h.request.HandleGetRequest)
		api.POST("/requests/:requestID/approve", admin, h.request.HandleApproveRequest)
		api.POST("/requests/:requestID/deny", admin, h.request.HandleDenyRequest)
		api.POST("/requests/:requestID/waitlist", admin, h.request.HandleWaitlistRequest)

		api.GET("/tickets/:ticketID", graduates, h.ticket.HandleGetTicket)
		api.GET("/tickets/:ticketID/transfers", graduates, h.ticket.HandleListTicketTransfers)
		api.PUT("/tickets/:ticketID/guest", graduates, h.ticket.HandleUpdateGuest)
		api.POST("/tickets/:ticketID/cancel", admin, h.ticket.HandleCancelTicket)
		api.POST("/tickets/:ticketID/qr", admin, h.ticket.HandleRegenerateQRCode)

		api.POST("/verify/qr", gate, h.verification.HandleVerifyQR)
		api.POST("/verify/code", gate, h.verification.HandleVerifyCode)
		api.POST("/verify/validate", gate, h.verification.HandleValidatePayload)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	if a := s.Config.Artifacts; a != nil && (a.Driver == "" || a.Driver == "local") {
		s.Router.Static("/storage", a.LocalDir)
	}

	if s.Config.Metrics != nil && s.Config.Metrics.Enabled {
		s.Router.GET(s.Config.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Ceremony Tickets API"
	docs.SwaggerInfo.Description = "Graduation ceremony ticket issuance, requests, redistribution and gate verification."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
