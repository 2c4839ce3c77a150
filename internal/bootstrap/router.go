package bootstrap

import (
	"database/sql"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/brokerdesk/submission-backend/config"
	httpapi "github.com/brokerdesk/submission-backend/internal/api/http"
	"github.com/brokerdesk/submission-backend/internal/api/http/middleware"
	"github.com/brokerdesk/submission-backend/internal/auth"
	authmw "github.com/brokerdesk/submission-backend/internal/auth/middleware"
	cmphttp "github.com/brokerdesk/submission-backend/internal/comparison/http"
	cmprepo "github.com/brokerdesk/submission-backend/internal/comparison/repository"
	cmpservice "github.com/brokerdesk/submission-backend/internal/comparison/service"
	"github.com/brokerdesk/submission-backend/internal/folders"
	intakehttp "github.com/brokerdesk/submission-backend/internal/intake/http"
	intakerepo "github.com/brokerdesk/submission-backend/internal/intake/repository"
	intakeservice "github.com/brokerdesk/submission-backend/internal/intake/service"
	subhttp "github.com/brokerdesk/submission-backend/internal/submissions/http"
	subrepo "github.com/brokerdesk/submission-backend/internal/submissions/repository"
	subservice "github.com/brokerdesk/submission-backend/internal/submissions/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Cfg         *config.Config
	DB          *sql.DB
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	AuthClient  *fbauth.Client
}

type Router struct {
	Engine      *gin.Engine
	Documents   *intakerepo.DocumentRepository
	Comparisons *cmprepo.ComparisonRepository
}

func BuildRouter(dep RouterDeps) *Router {
	r := gin.Default()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Pool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	if dep.AuthClient != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.AuthClient))
	} else {
		api.Use(auth.OptionalUser())
	}

	submissionRepo := subrepo.NewSubmissionRepository(dep.DB)
	submissionService := subservice.NewSubmissionService(submissionRepo)

	comparisonRepo := cmprepo.NewComparisonRepository(
		dep.Redis, time.Duration(dep.Cfg.Comparison.ResultTTLHours)*time.Hour)
	comparisonService := cmpservice.NewComparisonService(cmpservice.Config{
		CriticalFields:      dep.Cfg.Comparison.CriticalFields,
		NumericTolerance:    dep.Cfg.Comparison.NumericTolerance,
		DivergenceThreshold: dep.Cfg.Comparison.DivergenceThreshold,
		DefaultSource:       dep.Cfg.Comparison.DefaultSource,
	}, comparisonRepo, submissionService)

	documentRepo := intakerepo.NewDocumentRepository(
		dep.Redis, time.Duration(dep.Cfg.Intake.DocumentTTLDays)*24*time.Hour)
	engineClient := intakeservice.NewEngineClient(dep.Cfg.Engine.BaseURL)
	intakeService := intakeservice.NewIntakeService(
		documentRepo, engineClient, engineClient, engineClient,
		submissionService, dep.Cfg.Intake.MaxUploadBytes)

	folderRepo := folders.NewRepo(dep.Pool)
	folders.Register(api.Group("/folders"), folderRepo)

	intakehttp.New(intakeService).Register(api.Group("/intake"))

	subHandler := subhttp.New(submissionService)
	subGroup := api.Group("/submissions")
	subHandler.Register(subGroup)

	cmpHandler := cmphttp.New(comparisonService)
	cmpHandler.Register(api.Group("/comparisons"))
	subGroup.GET("/:id/compare-with-original", cmpHandler.CompareWithOriginal)
	subGroup.POST("/:id/conflicts/resolve", cmpHandler.ResolveForSubmission)

	return &Router{
		Engine:      r,
		Documents:   documentRepo,
		Comparisons: comparisonRepo,
	}
}
