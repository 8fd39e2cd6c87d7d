package main

import (
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/diewo77/multisarl/internal/audit"
	"github.com/diewo77/multisarl/internal/auth"
	"github.com/diewo77/multisarl/internal/blob"
	"github.com/diewo77/multisarl/internal/gate"
	"github.com/diewo77/multisarl/internal/handlers"
	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/metrics"
	"github.com/diewo77/multisarl/internal/models"
	"github.com/diewo77/multisarl/internal/policy"
	"github.com/diewo77/multisarl/internal/services"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators the routes are built from.
type Deps struct {
	DB          *gorm.DB
	Gate        *policy.AuthGate
	Tokens      *auth.TokenService
	Store       blob.Store
	Metrics     *metrics.Metrics
	Labour      services.LabourCostPolicy
	CORSOrigins []string
}

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	deps    Deps
	handler http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(d Deps) *App {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	app := &App{mux: http.NewServeMux(), deps: d}
	app.setupRoutes()

	// Metrics sits right above the mux so it sees the matched pattern.
	var h http.Handler = d.Metrics.Middleware(app.mux)
	h = auth.Middleware(d.Tokens)(h)
	h = withCORS(d.CORSOrigins, h)
	app.handler = withRecover(h)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	d := a.deps
	env := handlers.Env{DB: d.DB, Audit: audit.NewRecorder(d.DB), Gate: d.Gate}

	quotes := services.NewQuoteService(d.DB)
	trackings := services.NewTrackingService(d.DB)
	docs := services.NewDocumentService(d.DB, d.Store)
	gen := services.NewGenerator(d.DB, docs, trackings)
	payroll := services.NewPayrollService(d.DB)
	finance := services.NewFinanceService(d.DB, d.Labour)

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	ah := handlers.NewAuthHandler(d.DB, d.Tokens, d.Gate)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.HandleFunc("POST /api/auth/refresh", ah.Refresh)
	a.mux.HandleFunc("POST /api/auth/logout", ah.Logout)
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.Handle("GET /metrics", d.Metrics.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /api/auth/users/me", a.requireAuth(http.HandlerFunc(ah.Me)))

	ch := handlers.NewCompanyHandler(d.DB, env.Audit)
	a.mux.Handle("GET /api/company", a.requireAuth(http.HandlerFunc(ch.Edit)))
	a.mux.Handle("PUT /api/company", a.requireSuperuser(http.HandlerFunc(ch.Update)))

	logs := handlers.AuditLogs(env)
	a.mux.Handle("GET /api/audit-logs", a.requireSuperuser(http.HandlerFunc(logs.List)))
	a.mux.Handle("GET /api/audit-logs/{id}", a.requireSuperuser(http.HandlerFunc(logs.Retrieve)))

	// ─────────────────────────────────────────────────────────────────────────
	// Reports
	// ─────────────────────────────────────────────────────────────────────────
	rh := handlers.NewReportHandler(
		services.NewDashboardService(d.DB, finance),
		finance,
		services.NewSupplierService(d.DB),
		services.NewBudgetService(d.DB),
		gen,
	)
	a.mux.Handle("GET /api/dashboard/kpis", a.requireAuth(http.HandlerFunc(rh.KPIs)))
	a.route("GET /api/projects/financial_overview", models.ModuleProjects, "financial_overview", rh.FinancialOverview)
	a.route("GET /api/suppliers/invoices/monthly-stats", models.ModuleSuppliers, "monthly_stats", rh.SupplierStats)
	a.route("GET /api/suppliers/invoices/monthly-report-pdf", models.ModuleSuppliers, "monthly_report_pdf", rh.SupplierReportPDF)
	a.route("GET /api/budget/general-expenses/monthly-dashboard", models.ModuleBudget, "monthly_dashboard", rh.ExpenseDashboard)

	// ─────────────────────────────────────────────────────────────────────────
	// Quotes and their documents
	// ─────────────────────────────────────────────────────────────────────────
	qh := handlers.NewQuoteHandler(env, quotes, trackings, gen)
	a.crud("/api/quotes", models.ModuleQuotes, qh)
	a.route("GET /api/quotes/{id}/pdf", models.ModuleQuotes, "pdf", qh.PDF)
	a.route("GET /api/quotes/{id}/delivery-preview", models.ModuleQuotes, "delivery_preview", qh.DeliveryPreview)
	a.route("POST /api/quotes/{id}/generate-delivery-note", models.ModuleQuotes, "generate_delivery_note", qh.GenerateDeliveryNote)
	a.route("POST /api/quotes/{id}/generate-invoice", models.ModuleQuotes, "generate_invoice", qh.GenerateInvoice)
	a.route("POST /api/quotes/{id}/reset-tracking", models.ModuleQuotes, "reset_tracking", qh.ResetTracking)
	a.crud("/api/quote-lines", models.ModuleQuoteLines, handlers.QuoteLines(env, quotes))
	a.crud("/api/quote-groups", models.ModuleQuoteGroups, handlers.QuoteGroups(env, quotes))
	a.crud("/api/quote-trackings", models.ModuleQuoteTrackings, handlers.Trackings(env, trackings))
	a.crud("/api/quote-tracking-lines", models.ModuleQuoteTrackingLines, handlers.TrackingLines(env, trackings))

	// ─────────────────────────────────────────────────────────────────────────
	// Clients and projects
	// ─────────────────────────────────────────────────────────────────────────
	a.crud("/api/clients", models.ModuleClients, handlers.Clients(env))
	a.crud("/api/projects", models.ModuleProjects, handlers.Projects(env))
	a.crud("/api/projects/hr", models.ModuleProjects, handlers.ProjectHR(env))
	a.crud("/api/projects/costs", models.ModuleProjects, handlers.ProjectCosts(env))
	a.crud("/api/projects/revenues", models.ModuleProjects, handlers.Revenues(env))
	a.crud("/api/projects/expenses", models.ModuleProjects, handlers.Expenses(env))
	a.crud("/api/projects/workers", models.ModuleProjects, handlers.ProjectWorkers(env))
	a.crud("/api/projects/attendance", models.ModuleProjects, handlers.Attendance(env, services.NewAttendanceService(d.DB)))

	// ─────────────────────────────────────────────────────────────────────────
	// Budget, payroll, suppliers
	// ─────────────────────────────────────────────────────────────────────────
	a.crud("/api/budget/employees", models.ModuleBudget, handlers.Employees(env))
	a.crud("/api/budget/materials", models.ModuleBudget, handlers.Materials(env))
	a.crud("/api/budget/material-costs", models.ModuleBudget, handlers.MaterialCosts(env))
	a.crud("/api/budget/general-expenses", models.ModuleBudget, handlers.GeneralExpenses(env))
	a.crud("/api/budget/labour-costs", models.ModuleBudget, handlers.LabourCosts(env))
	a.crud("/api/payroll/periods", models.ModulePayroll, handlers.SalaryPeriods(env, payroll))
	a.crud("/api/payroll/leaves", models.ModulePayroll, handlers.Leaves(env, payroll))
	a.crud("/api/suppliers", models.ModuleSuppliers, handlers.Suppliers(env))
	a.crud("/api/suppliers/invoices", models.ModuleSuppliers, handlers.SupplierInvoices(env))
	a.crud("/api/invoices", models.ModuleInvoices, handlers.Invoices(env))

	// ─────────────────────────────────────────────────────────────────────────
	// Documents, HR estimation, notifications
	// ─────────────────────────────────────────────────────────────────────────
	dh := handlers.NewDocumentHandler(env, docs)
	a.crud("/api/documents", models.ModuleDocuments, dh)
	a.route("GET /api/documents/{id}/download", models.ModuleDocuments, gate.ActionRetrieve, dh.Download)

	eh := handlers.NewEstimationHandler(env, services.NewEstimationService(d.DB))
	a.crud("/api/hr-estimation", models.ModuleHREstimation, eh)
	a.route("POST /api/hr-estimation/bulk_update_rows", models.ModuleHREstimation, "bulk_update_rows", eh.BulkUpdate)
	a.route("DELETE /api/hr-estimation/clear_all", models.ModuleHREstimation, "clear_all", eh.ClearAll)

	a.crud("/api/notifications", models.ModuleNotifications, handlers.Notifications(env))

	// ─────────────────────────────────────────────────────────────────────────
	// Roles and users
	// ─────────────────────────────────────────────────────────────────────────
	a.crud("/api/auth/roles", models.ModuleAuth, handlers.Roles(env))
	a.crud("/api/auth/permissions", models.ModuleAuth, handlers.Permissions(env))
	a.crud("/api/auth/user-roles", models.ModuleAuth, handlers.UserRoles(env))
	a.crud("/api/auth/users", models.ModuleAuth, handlers.NewUserHandler(env))
}

// crud mounts the six standard routes of a resource under prefix.
func (a *App) crud(prefix, module string, h handlers.CRUD) {
	a.route("GET "+prefix, module, gate.ActionList, h.List)
	a.route("POST "+prefix, module, gate.ActionCreate, h.Create)
	a.route("GET "+prefix+"/{id}", module, gate.ActionRetrieve, h.Retrieve)
	a.route("PUT "+prefix+"/{id}", module, gate.ActionUpdate, h.Update)
	a.route("PATCH "+prefix+"/{id}", module, gate.ActionPartialUpdate, h.Update)
	a.route("DELETE "+prefix+"/{id}", module, gate.ActionDestroy, h.Destroy)
}

// route mounts one handler behind authentication and the module permission.
func (a *App) route(pattern, module string, action gate.Action, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.requireAuth(a.requirePermission(module, action)(h)))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if sqlDB, err := a.deps.DB.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		status["status"], status["database"] = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}
	httpx.JSON(w, code, status)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requireSuperuser wraps a handler to require an authenticated superuser.
func (a *App) requireSuperuser(next http.Handler) http.Handler {
	return a.requireAuth(a.deps.Gate.RequireSuperuser()(next))
}

// requirePermission wraps a handler to require specific module permission.
func (a *App) requirePermission(module string, action gate.Action) func(http.Handler) http.Handler {
	return a.deps.Gate.RequirePermission(module, action)
}

// withCORS answers preflight requests and allows credentialed calls from
// the configured origins. "*" allows any origin.
func withCORS(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(origins, origin) || slices.Contains(origins, "*")) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// withRecover turns a handler panic into a 500 JSON error.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[PANIC] %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if !strings.HasPrefix(r.URL.Path, "/health") {
			log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
		}
	})
}
