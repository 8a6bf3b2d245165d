package http

import (
	"makono-backend/internal/adapter/middleware"
	"makono-backend/internal/infrastructure/metrics"

	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health        *Handler
	Loans         *LoanHandler
	Admin         *AdminHandler
	Notifications *NotificationHandler
	Metrics       *metrics.Metrics
	// Idempotency wraps mutating routes; nil disables it.
	Idempotency echo.MiddlewareFunc
}

// Register mounts every route on e. Health and metrics are open; the rest need identity headers.
func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics.Handler()))
	}

	id := middleware.Identity()
	read := []echo.MiddlewareFunc{id}
	write := []echo.MiddlewareFunc{id}
	if r.Idempotency != nil {
		write = append(write, r.Idempotency)
	}

	e.GET("/catalog", r.Loans.Catalog, read...)
	e.POST("/quotes", r.Loans.Quote, read...)

	e.POST("/loans", r.Loans.CreateLoan, write...)
	e.GET("/loans", r.Loans.ListLoans, read...)
	e.GET("/loans/:loan_id", r.Loans.GetLoan, read...)
	e.GET("/loans/:loan_id/schedule", r.Loans.Schedule, read...)
	e.GET("/loans/:loan_id/documents", r.Loans.LoanDocuments, read...)
	e.POST("/loans/:loan_id/acknowledge", r.Loans.Acknowledge, write...)

	e.POST("/documents", r.Loans.UploadDocument, write...)
	e.GET("/documents", r.Loans.ListDocuments, read...)
	e.GET("/documents/:document_id/url", r.Loans.DocumentURL, read...)

	e.GET("/notifications", r.Notifications.List, read...)
	e.POST("/notifications/:notification_id/read", r.Notifications.MarkRead, read...)

	e.GET("/admin/loans", r.Admin.ListLoans, read...)
	e.GET("/admin/stats", r.Admin.Stats, read...)
	e.GET("/admin/borrowers", r.Admin.Borrowers, read...)
	e.GET("/admin/history", r.Admin.History, read...)
	e.POST("/admin/loans/:loan_id/approve", r.Admin.Approve, write...)
	e.POST("/admin/loans/:loan_id/reject", r.Admin.Reject, write...)
	e.POST("/admin/loans/:loan_id/request-security-docs", r.Admin.RequestSecurityDocs, write...)
	e.PUT("/admin/interest-rate", r.Admin.UpdateInterestRate, write...)
}
