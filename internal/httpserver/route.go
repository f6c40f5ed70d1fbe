package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/honestybar/internal/middleware/auth"
	"github.com/Skotchmaster/honestybar/internal/policy"
	"github.com/Skotchmaster/honestybar/internal/tokens"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type Deps struct {
	UserHandler    *UserHTTP
	ProductHandler *ProductHTTP
	CartHandler    *CartHTTP
	Issuer         *tokens.Issuer

	// LoginRateLimit is requests per second per client IP on /users/login.
	// Zero disables the limit.
	LoginRateLimit float64
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := auth.New(d.Issuer)
	requireAuth := authMW.RequireAuth()
	manageUsers := auth.RequireAdmin()
	manageProducts := auth.Require(policy.ActionManageProducts)

	var loginMW []echo.MiddlewareFunc
	if d.LoginRateLimit > 0 {
		loginMW = append(loginMW, loginLimiter(d.LoginRateLimit))
	}

	users := e.Group("/users")
	users.POST("/login", d.UserHandler.Login, loginMW...)
	users.POST("", d.UserHandler.Create, requireAuth, manageUsers)
	users.DELETE("/:id", d.UserHandler.Delete, requireAuth, manageUsers)
	users.GET("/me", d.UserHandler.Me, requireAuth)

	products := e.Group("/products", requireAuth)
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.Get)
	products.POST("", d.ProductHandler.Create, manageProducts)
	products.PUT("/:id", d.ProductHandler.Update, manageProducts)
	products.DELETE("/:id", d.ProductHandler.Delete, manageProducts)

	cart := e.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.Get)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.DELETE("/items/:productId", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.Clear)
	cart.DELETE("/:userId", d.CartHandler.Clear)
	// Static segments win over :userId, so these never clear a cart named
	// after a sub-resource.
	for _, reserved := range []string{"/items", "/checkout", "/history"} {
		cart.DELETE(reserved, methodNotAllowed)
	}
	cart.POST("/checkout", d.CartHandler.Checkout)
	cart.GET("/history", d.CartHandler.History)
	cart.GET("/history/:userId", d.CartHandler.History)
}

func methodNotAllowed(c echo.Context) error {
	return echo.ErrMethodNotAllowed
}

func loginLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: burst,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, transport.ErrorResponse{
				Error: "too many login attempts",
				Code:  "RATE_LIMITED",
			})
		},
	})
}
