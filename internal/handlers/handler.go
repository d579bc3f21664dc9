package handlers

import (
	"html/template"
	"time"

	"malaria_clinic/internal/logger"
	"malaria_clinic/internal/service"
	"malaria_clinic/internal/session"
	"malaria_clinic/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	defaultSessionName    = "clinic_session"
	defaultMaxUploadBytes = 16 << 20
)

// Config carries the HTTP-layer settings.
type Config struct {
	SessionName    string
	SessionSecret  string
	SessionMaxAge  int
	MaxUploadBytes int64
	AllowSignUp    bool
	CORSOrigins    []string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{services: services, log: log, cfg: cfg}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger())
	if len(h.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  h.cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Authorization", "Content-Type"},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}
	router.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/api/", "/auth/", "/ws", "/swagger/"}),
	))
	router.SetHTMLTemplate(template.Must(web.Templates()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerPageRoutes(router)

	// dashboard counts stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requireToken)
	{
		api.GET("/patients", h.apiListPatients)
		api.POST("/patients", h.apiCreatePatient)
		api.DELETE("/patients/:id", h.apiDeletePatient)

		api.GET("/doctors", h.apiListDoctors)
		api.POST("/doctors", h.apiCreateDoctor)
		api.DELETE("/doctors/:id", h.apiDeleteDoctor)

		api.GET("/dashboard", h.apiDashboard)
		api.POST("/predict", h.apiPredict)
	}
}

func (h *Handler) registerPageRoutes(r *gin.Engine) {
	pages := r.Group("/", session.Middleware(h.cfg.SessionName, h.cfg.SessionSecret, h.cfg.SessionMaxAge))
	{
		pages.GET("/", h.index)
		pages.POST("/predict", h.predict)

		pages.GET("/login", h.loginPage)
		pages.POST("/login", h.login)
		pages.GET("/logout", h.logout)

		pages.GET("/dashboard", h.dashboard)

		pages.GET("/patient", h.patientPage)
		pages.GET("/addpatient", h.addPatientPage)
		pages.POST("/addpatient", h.addPatient)
		pages.GET("/patient/delete/:id", h.deletePatient)
		pages.POST("/patient/delete/:id", h.deletePatient)

		pages.GET("/doctor", h.doctorPage)
		pages.GET("/adddoctor", h.addDoctorPage)
		pages.POST("/adddoctor", h.addDoctor)
		pages.POST("/doctor/delete/:id", h.deleteDoctor)
	}
}
