package routes

import (
	"fmt"
	"net/http"

	"caintamart/admin"
	"caintamart/auth"
	"caintamart/chat"
	"caintamart/commerce"
	"caintamart/filemgr"
	"caintamart/idempotency"
	"caintamart/middleware"
	"caintamart/profile"
	"caintamart/ratelim"
	"caintamart/settings"

	"github.com/julienschmidt/httprouter"
)

// Handlers bundles every endpoint owner the router needs.
type Handlers struct {
	Auth        *auth.Service
	Chat        *chat.Handler
	Commerce    *commerce.Handler
	Profile     *profile.Handler
	Settings    *settings.Service
	Admin       *admin.Handler
	Idempotency *idempotency.Guard
	Uploader    filemgr.Uploader
	UploadDir   string
}

// Limiters are the per-IP buckets for the abuse-prone endpoints.
type Limiters struct {
	Auth *ratelim.RateLimiter
	Chat *ratelim.RateLimiter
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddStaticRoutes(router *httprouter.Router, h Handlers) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(h.UploadDir))
}

func AddAuthRoutes(router *httprouter.Router, h Handlers, rl Limiters) {
	router.POST("/api/auth/register", rl.Auth.Limit(h.Auth.RegisterHandler))
	router.POST("/api/auth/login", rl.Auth.Limit(h.Auth.LoginHandler))
	router.POST("/api/auth/logout", middleware.Authenticate(h.Auth.LogoutHandler))
	router.POST("/api/auth/verify-email", rl.Auth.Limit(h.Auth.VerifyEmailHandler))
	router.POST("/api/auth/forgot-password", rl.Auth.Limit(h.Auth.ForgotPasswordHandler))
	router.POST("/api/auth/reset-password", rl.Auth.Limit(h.Auth.ResetPasswordHandler))
	router.GET("/api/auth/me", middleware.Authenticate(h.Auth.MeHandler))
}

func AddProductRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/products", h.Commerce.ListProducts)
	router.GET("/api/products/:id", h.Commerce.GetProduct)
	router.GET("/api/settings/delivery-fee", h.Settings.GetDeliveryFee)
}

func AddCartRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/cart", middleware.Authenticate(h.Commerce.GetCart))
	router.POST("/api/cart", middleware.OptionalAuth(h.Commerce.AddToCart))
	router.POST("/api/cart/preorder", middleware.OptionalAuth(h.Commerce.PreOrder))
	router.PATCH("/api/cart/:productId", middleware.Authenticate(h.Commerce.UpdateCartItem))
	router.DELETE("/api/cart/:productId", middleware.Authenticate(h.Commerce.RemoveCartItem))
	router.GET("/api/checkout", middleware.OptionalAuth(h.Commerce.Checkout))
	router.POST("/api/orders", middleware.OptionalAuth(h.Idempotency.Wrap(h.Commerce.PlaceOrder)))
	router.GET("/api/orders", middleware.Authenticate(h.Commerce.MyOrders))
	router.GET("/api/orders/:id", middleware.Authenticate(h.Commerce.GetOrder))
	router.GET("/api/orders/:id/receipt", middleware.Authenticate(h.Commerce.Receipt))
}

func AddProfileRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/profile", middleware.Authenticate(h.Profile.GetProfile))
	router.POST("/api/profile", middleware.Authenticate(h.Profile.SubmitProfile))
	router.POST("/api/uploads", middleware.Authenticate(filemgr.UploadHandler(h.Uploader)))
}

// AddChatRoutes serves guests too, so customer endpoints only read a
// token when one is present.
func AddChatRoutes(router *httprouter.Router, h Handlers, rl Limiters) {
	router.GET("/api/chat/thread", middleware.OptionalAuth(h.Chat.GetThread))
	router.POST("/api/chat/messages", rl.Chat.Limit(middleware.OptionalAuth(h.Chat.PostMessage)))
	router.POST("/api/chat/read", middleware.OptionalAuth(h.Chat.MarkRead))
	router.GET("/api/chat/ws", middleware.OptionalAuth(h.Chat.CustomerSocket))

	router.GET("/api/admin/chats", middleware.RequireAdmin(h.Chat.ListThreads))
	router.GET("/api/admin/chats/:threadid", middleware.RequireAdmin(h.Chat.AdminThread))
	router.POST("/api/admin/chats/:threadid/messages", middleware.RequireAdmin(h.Chat.AdminReply))
	router.POST("/api/admin/chats/:threadid/read", middleware.RequireAdmin(h.Chat.AdminMarkRead))
	router.GET("/api/admin/chat/ws", middleware.RequireAdmin(h.Chat.AdminSocket))
	router.GET("/api/admin/chat/ws/:threadid", middleware.RequireAdmin(h.Chat.AdminSocket))
}

func AddAdminRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/admin/dashboard", middleware.RequireAdmin(h.Admin.Dashboard))
	router.GET("/api/admin/logs/deletes", middleware.RequireAdmin(h.Admin.GetDeleteLogs))
	router.GET("/api/admin/logs/denials", middleware.RequireAdmin(h.Admin.GetDenialLogs))

	router.GET("/api/admin/orders", middleware.RequireAdmin(h.Commerce.AdminOrders))
	router.POST("/api/admin/orders/:id/advance", middleware.RequireAdmin(h.Commerce.AdvanceOrder))
	router.PUT("/api/admin/orders/:id/status", middleware.RequireAdmin(h.Commerce.SetOrderStatus))
	router.DELETE("/api/admin/orders/:id", middleware.RequireAdmin(h.Commerce.DeleteOrder))

	router.POST("/api/admin/products", middleware.RequireAdmin(h.Commerce.CreateProduct))
	router.PUT("/api/admin/products/:id", middleware.RequireAdmin(h.Commerce.UpdateProduct))
	router.DELETE("/api/admin/products/:id", middleware.RequireAdmin(h.Commerce.DeleteProduct))
	router.POST("/api/admin/products/:id/preorder", middleware.RequireAdmin(h.Commerce.StartPreorder))

	router.PUT("/api/admin/settings/delivery-fee", middleware.RequireAdmin(h.Settings.PutDeliveryFee))

	router.GET("/api/admin/verifications", middleware.RequireAdmin(h.Profile.ListPending))
	router.POST("/api/admin/verifications/:uid/verify", middleware.RequireAdmin(h.Profile.Verify))
	router.POST("/api/admin/verifications/:uid/deny", middleware.RequireAdmin(h.Profile.Deny))
}
