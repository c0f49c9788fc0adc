package api

import (
	"github.com/garnizeh/curator/internal/config"
	"github.com/garnizeh/curator/internal/extract"
	"github.com/garnizeh/curator/internal/notify"
	"github.com/garnizeh/curator/pkg/repository"
	"github.com/gorilla/mux"
)

// Deps bundles everything the handlers need. cmd/server builds the concrete
// implementations; tests substitute fakes.
type Deps struct {
	Accounts    repository.AccountRepo
	Companies   repository.CompanyProfileRepo
	Engineers   repository.EngineerProfileRepo
	Roles       repository.RoleRepo
	Matches     repository.MatchRepo
	Challenges  repository.ChallengeRepo
	Connections repository.ATSRepo

	Computer   MatchComputer
	Reviewer   SubmissionReviewer
	Extractor  *extract.Extractor
	Beautifier Beautifier
	Queue      Enqueuer
	Notifier   notify.Notifier
}

func SetupRoutes(cfg *config.Config, version, buildTime string, d Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(d.Accounts, d.Companies, d.Engineers, cfg.JWTSecret, cfg.TokenDuration)
	profilesHandler := NewProfilesHandler(d.Companies, d.Engineers, d.Queue)
	rolesHandler := NewRolesHandler(d.Roles, d.Extractor, d.Beautifier, d.Queue)
	matchesHandler := NewMatchesHandler(d.Computer, d.Matches, d.Beautifier, d.Extractor, d.Queue, d.Notifier)
	challengesHandler := NewChallengesHandler(d.Matches, d.Challenges, d.Reviewer, d.Queue)
	atsHandler := NewATSHandler(d.Connections, d.Queue)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")
	r.HandleFunc("/v1/roles/slug/{slug}", rolesHandler.GetBySlug).Methods("GET")
	r.HandleFunc("/v1/challenges/response", challengesHandler.Response).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Profile endpoints
	apiV1.HandleFunc("/companies/{id}/profile/crawl", profilesHandler.CompanyCrawl).Methods("POST")
	apiV1.HandleFunc("/companies/{id}/profile", profilesHandler.GetCompanyProfile).Methods("GET")
	apiV1.HandleFunc("/companies/{id}/profile/questionnaire", profilesHandler.CompanyQuestionnaire).Methods("PUT")
	apiV1.HandleFunc("/engineers/{id}/profile/crawl", profilesHandler.EngineerCrawl).Methods("POST")
	apiV1.HandleFunc("/engineers/{id}/profile", profilesHandler.GetEngineerProfile).Methods("GET")
	apiV1.HandleFunc("/engineers/{id}/profile/questionnaire", profilesHandler.EngineerQuestionnaire).Methods("PUT")

	// Role endpoints
	apiV1.HandleFunc("/roles", rolesHandler.CreateRole).Methods("POST")
	apiV1.HandleFunc("/roles/extract", rolesHandler.ExtractRole).Methods("POST")
	apiV1.HandleFunc("/roles/{id}/status", rolesHandler.SetStatus).Methods("POST")

	// Match endpoints
	apiV1.HandleFunc("/roles/{id}/matches/compute", matchesHandler.ComputeForRole).Methods("POST")
	apiV1.HandleFunc("/roles/{id}/matches", matchesHandler.ListForRole).Methods("GET")
	apiV1.HandleFunc("/engineers/{id}/matches/recompute", matchesHandler.RecomputeForEngineer).Methods("POST")
	apiV1.HandleFunc("/engineers/{id}/matches", matchesHandler.ListForEngineer).Methods("GET")
	apiV1.HandleFunc("/matches/adhoc", matchesHandler.ComputeAdHoc).Methods("POST")
	apiV1.HandleFunc("/matches/{id}/decision", matchesHandler.Decision).Methods("POST")

	// Challenge endpoints
	apiV1.HandleFunc("/challenges/{match_id}/submit", challengesHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/challenges/{match_id}/review", challengesHandler.Review).Methods("POST")

	// ATS endpoints
	apiV1.HandleFunc("/companies/{id}/ats/connections", atsHandler.CreateConnection).Methods("POST")
	apiV1.HandleFunc("/companies/{id}/ats/sync", atsHandler.Sync).Methods("POST")

	return r
}
