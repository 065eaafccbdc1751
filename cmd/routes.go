package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("user"))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	// Auth
	mux.Post("/user/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/user/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Get("/user/verify_email", standardMiddleware.ThenFunc(app.userHandler.VerifyEmail))
	mux.Post("/user/resend_verification", standardMiddleware.ThenFunc(app.userHandler.ResendVerification))
	mux.Post("/user/request_reset", standardMiddleware.ThenFunc(app.userHandler.RequestPasswordReset))
	mux.Post("/user/reset_password", standardMiddleware.ThenFunc(app.userHandler.ResetPassword))

	// Profile
	mux.Post("/user/change_password", authMiddleware.ThenFunc(app.userHandler.ChangePassword))
	mux.Get("/user/:id", authMiddleware.ThenFunc(app.userHandler.GetUserByID))
	mux.Put("/user/:id", authMiddleware.ThenFunc(app.userHandler.UpdateUser))

	// Documents
	mux.Post("/documents", authMiddleware.ThenFunc(app.documentHandler.UploadDocument))
	mux.Get("/documents/check_limit", authMiddleware.ThenFunc(app.documentHandler.CheckUploadLimit))
	mux.Get("/documents", authMiddleware.ThenFunc(app.documentHandler.GetMyDocuments))

	// Billing
	mux.Post("/stripe/webhook", standardMiddleware.ThenFunc(app.billingHandler.StripeWebhook))
	mux.Post("/billing/checkout", authMiddleware.ThenFunc(app.billingHandler.CreateCheckoutSession))
	mux.Get("/purchases", authMiddleware.ThenFunc(app.billingHandler.GetMyPurchases))
	mux.Get("/plans", authMiddleware.ThenFunc(app.billingHandler.GetPlans))

	// Notifications
	mux.Get("/notifications", authMiddleware.ThenFunc(app.notificationHandler.GetMyNotifications))
	mux.Put("/notifications/:id/read", authMiddleware.ThenFunc(app.notificationHandler.MarkRead))
	mux.Get("/ws", authMiddleware.ThenFunc(app.WebSocketHandler))

	// Admin
	mux.Get("/admin/users", adminAuthMiddleware.ThenFunc(app.userHandler.GetUsers))
	mux.Post("/admin/users", adminAuthMiddleware.ThenFunc(app.userHandler.CreateUser))
	mux.Del("/admin/users/:id", adminAuthMiddleware.ThenFunc(app.userHandler.DeleteUser))
	mux.Get("/admin/documents", adminAuthMiddleware.ThenFunc(app.documentHandler.GetDocuments))
	mux.Put("/admin/documents/:id/status", adminAuthMiddleware.ThenFunc(app.documentHandler.UpdateDocumentStatus))
	mux.Get("/admin/purchases", adminAuthMiddleware.ThenFunc(app.billingHandler.GetAllPurchases))
	mux.Get("/admin/dashboard", adminAuthMiddleware.ThenFunc(app.dashboardHandler.GetStats))

	return mux
}
