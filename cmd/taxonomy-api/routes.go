package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// InitRouter wires every endpoint to its handler.
func InitRouter() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Rate limiter admin login: 10 per IP per minute
	loginLimiter := NewIPRateLimiter(10, time.Minute)

	// Public taxonomy endpoints
	api.HandleFunc("/categories", ListCategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories", CreateCategoryHandler).Methods(http.MethodPost)
	api.HandleFunc("/categories/tree", CategoryTreeHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", GetCategoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", UpdateCategoryHandler).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id:[0-9]+}", DeleteCategoryHandler).Methods(http.MethodDelete)
	api.HandleFunc("/categories/{id:[0-9]+}/children", CategoryChildrenHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}/descendants", CategoryDescendantsHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}/ancestors", CategoryAncestorsHandler).Methods(http.MethodGet)

	// Admin endpoints; login is registered before the authenticated
	// subrouter so it matches first.
	api.Handle("/admin/login", loginLimiter.Middleware(http.HandlerFunc(AdminLoginHandler))).Methods(http.MethodPost)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(AdminAuthMiddleware)
	admin.HandleFunc("/categories/tree", AdminTreeHandler).Methods(http.MethodGet)
	admin.HandleFunc("/categories/export", AdminExportHandler).Methods(http.MethodPost)

	return router
}
