package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/bkastelic/fieldstock/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret, Log: log}
	unitsHandler := &UnitsHandler{DB: db, Log: log}
	transitionsHandler := &TransitionsHandler{DB: db, Log: log}
	importsHandler := &ImportsHandler{DB: db, Log: log}
	commentsHandler := &CommentsHandler{DB: db, Log: log}
	usersHandler := &UsersHandler{DB: db, Log: log}

	authMW := AuthMiddleware(jwtSecret, db)
	canDispatch := RequireCapability(func(c model.Capabilities) bool { return c.Dispatch })
	canReceive := RequireCapability(func(c model.Capabilities) bool { return c.Receive })
	canTransit := RequireCapability(func(c model.Capabilities) bool { return c.Transit })
	canImport := RequireCapability(func(c model.Capabilities) bool { return c.Import })
	canManageUsers := RequireCapability(func(c model.Capabilities) bool { return c.ManageUsers })

	// Public: login and registration.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	// Account.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Inventory reads. Visibility scoping happens inside the handlers.
	mux.Handle("GET /api/units", authMW(http.HandlerFunc(unitsHandler.List)))
	mux.Handle("GET /api/units/filters", authMW(http.HandlerFunc(unitsHandler.Filters)))
	mux.Handle("GET /api/barcode/{code}", authMW(http.HandlerFunc(unitsHandler.Barcode)))
	mux.Handle("GET /api/units/{id}", authMW(http.HandlerFunc(unitsHandler.Get)))

	// Edits. The handler distinguishes status-only from full edits.
	mux.Handle("PUT /api/units/{id}", authMW(http.HandlerFunc(unitsHandler.Update)))
	mux.Handle("PUT /api/units/{id}/photo", authMW(http.HandlerFunc(unitsHandler.UploadPhoto)))
	mux.Handle("GET /api/units/{id}/photo", authMW(http.HandlerFunc(unitsHandler.GetPhoto)))

	// Lifecycle transitions.
	mux.Handle("POST /api/units/dispatch", authMW(canDispatch(http.HandlerFunc(transitionsHandler.Dispatch))))
	mux.Handle("POST /api/units/receive", authMW(canReceive(http.HandlerFunc(transitionsHandler.Receive))))
	mux.Handle("POST /api/units/transit", authMW(canTransit(http.HandlerFunc(transitionsHandler.Transit))))
	mux.Handle("GET /api/technicians", authMW(canDispatch(http.HandlerFunc(transitionsHandler.Technicians))))

	// Bulk intake.
	mux.Handle("POST /api/units/import", authMW(canImport(http.HandlerFunc(importsHandler.Upload))))
	mux.Handle("GET /api/units/import/template", authMW(canImport(http.HandlerFunc(importsHandler.Template))))

	// Comments.
	mux.Handle("GET /api/units/{id}/comments", authMW(http.HandlerFunc(commentsHandler.List)))
	mux.Handle("POST /api/units/{id}/comments", authMW(http.HandlerFunc(commentsHandler.Create)))

	// Accounts and the registration queue.
	mux.Handle("GET /api/users", authMW(canManageUsers(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(canManageUsers(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(canManageUsers(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(canManageUsers(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(canManageUsers(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(canManageUsers(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("GET /api/requests", authMW(canManageUsers(http.HandlerFunc(usersHandler.Requests))))
	mux.Handle("POST /api/requests/{id}/approve", authMW(canManageUsers(http.HandlerFunc(usersHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/reject", authMW(canManageUsers(http.HandlerFunc(usersHandler.Reject))))

	return LoggingMiddleware(log)(mux)
}
