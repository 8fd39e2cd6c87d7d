package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/multisarl/internal/httpx"
	"github.com/diewo77/multisarl/internal/services"
)

// ReportHandler serves the read-only aggregates: dashboard, financial
// overview, supplier statistics and the expense dashboard.
type ReportHandler struct {
	dashboard *services.DashboardService
	finance   *services.FinanceService
	suppliers *services.SupplierService
	budget    *services.BudgetService
	gen       *services.Generator
	now       func() time.Time
}

func NewReportHandler(dashboard *services.DashboardService, finance *services.FinanceService,
	suppliers *services.SupplierService, budget *services.BudgetService, gen *services.Generator) *ReportHandler {
	return &ReportHandler{
		dashboard: dashboard,
		finance:   finance,
		suppliers: suppliers,
		budget:    budget,
		gen:       gen,
		now:       time.Now,
	}
}

func (h *ReportHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.dashboard.KPIs(r.Context(), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, kpis)
}

// FinancialOverview reports revenue, expenses and margin for ?year=&month=,
// defaulting to the current month.
func (h *ReportHandler) FinancialOverview(w http.ResponseWriter, r *http.Request) {
	year, month := httpx.YearMonth(r, h.now())
	out, err := h.finance.Overview(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ReportHandler) SupplierStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.suppliers.MonthlyStats(r.Context(), h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// SupplierReportPDF renders the purchases per supplier for ?year=&month=.
// Unlike the other reports an out-of-range month is rejected.
func (h *ReportHandler) SupplierReportPDF(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year := httpx.QueryInt(r, "year", now.Year())
	month := httpx.QueryInt(r, "month", int(now.Month()))
	report, err := h.suppliers.MonthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.gen.SupplierReport(r.Context(), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Binary(w, "application/pdf", out.Filename, out.Data)
}

func (h *ReportHandler) ExpenseDashboard(w http.ResponseWriter, r *http.Request) {
	year, month := httpx.YearMonth(r, h.now())
	out, err := h.budget.MonthlyDashboard(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
