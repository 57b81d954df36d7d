package router

import (
	"net/http"

	"github.com/gigchain/backend/internal/auth"
	"github.com/gigchain/backend/internal/middleware"
	"github.com/gigchain/backend/internal/observability"
	"github.com/gigchain/backend/internal/projects"
	"github.com/gigchain/backend/internal/taskrecords"
)

// New returns an http.Handler serving the API under /api/v1.
// Everything except register/login and metrics requires a Bearer JWT.
func New(
	authHandler *auth.Handler,
	projectsHandler *projects.Handler,
	recordsHandler *taskrecords.Handler,
	authSvc auth.Service,
	metrics *observability.Registry,
) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	authed := middleware.JWTAuth(authSvc)

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.Handle("POST "+base+"/projects", authed(http.HandlerFunc(projectsHandler.Create)))
	mux.Handle("GET "+base+"/projects", authed(http.HandlerFunc(projectsHandler.List)))
	mux.Handle("GET "+base+"/projects/{id}", authed(http.HandlerFunc(projectsHandler.Get)))
	mux.Handle("POST "+base+"/projects/{id}/publish", authed(http.HandlerFunc(projectsHandler.Publish)))
	mux.Handle("POST "+base+"/projects/{id}/start", authed(http.HandlerFunc(projectsHandler.Start)))

	mux.Handle("POST "+base+"/records", authed(http.HandlerFunc(recordsHandler.Create)))
	mux.Handle("GET "+base+"/records/project/{id}", authed(http.HandlerFunc(recordsHandler.GetByProject)))
	mux.Handle("GET "+base+"/records/client", authed(http.HandlerFunc(recordsHandler.ListForClient)))
	mux.Handle("GET "+base+"/records/freelancer", authed(http.HandlerFunc(recordsHandler.ListForFreelancer)))
	mux.Handle("POST "+base+"/records/{id}/rating", authed(http.HandlerFunc(recordsHandler.Rate)))
	mux.Handle("POST "+base+"/records/{id}/deliverables", authed(http.HandlerFunc(recordsHandler.UploadDeliverable)))

	mux.HandleFunc("GET "+base+"/metrics", metrics.Handler())

	return mux
}
