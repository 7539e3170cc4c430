package routes

import (
	"github.com/julienschmidt/httprouter"
)

// RoutesWrapper builds the full router.
func RoutesWrapper(h Handlers, rl Limiters) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	AddStaticRoutes(router, h)
	AddAuthRoutes(router, h, rl)
	AddProductRoutes(router, h)
	AddCartRoutes(router, h)
	AddProfileRoutes(router, h)
	AddChatRoutes(router, h, rl)
	AddAdminRoutes(router, h)
	return router
}
