package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"urbangear/internal/auth"
	"urbangear/internal/catalog"
	"urbangear/internal/checkout"
	"urbangear/internal/session"
	"urbangear/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionHeader = "X-Session-ID"

// Handler contains HTTP handlers
type Handler struct {
	sessions        *session.Manager
	catalogService  *catalog.Service
	checkoutService *checkout.Service
	authService     *auth.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(
	sessions *session.Manager,
	catalogService *catalog.Service,
	checkoutService *checkout.Service,
	authService *auth.Service,
) *Handler {
	return &Handler{
		sessions:        sessions,
		catalogService:  catalogService,
		checkoutService: checkoutService,
		authService:     authService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sessions", h.createSession)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/login", h.logIn)

		withSession := v1.Group("", h.sessionMiddleware())
		{
			withSession.GET("/cart", h.getCart)
			withSession.POST("/cart/items", h.addCartItem)
			withSession.PUT("/cart/items/:productId", h.updateCartItem)
			withSession.DELETE("/cart/items/:productId", h.removeCartItem)
			withSession.DELETE("/cart", h.clearCart)

			withSession.GET("/wishlist", h.getWishlist)
			withSession.POST("/wishlist/toggle", h.toggleWishlist)
			withSession.DELETE("/wishlist/:productId", h.removeFromWishlist)

			withSession.GET("/notifications", h.getNotifications)

			withSession.POST("/checkout", h.authMiddleware(), h.placeOrder)
		}

		v1.GET("/orders/:id", h.getOrder)
	}
}

// sessionMiddleware resolves the caller's session. An unknown or
// expired session id is a wiring defect on the client side and is
// rejected outright rather than silently ignored.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		sess, ok := h.sessions.Get(id)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown or expired session",
			})
			return
		}
		c.Set("session", sess)
		c.Next()
	}
}

// authMiddleware validates the Bearer token on checkout routes
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing bearer token",
			})
			return
		}

		userID, err := h.authService.VerifyToken(header[len(prefix):])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet("session").(*session.Session)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createSession starts a new shopper session
func (h *Handler) createSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
	})
}

// listProducts handles catalog browsing with search and sort
func (h *Handler) listProducts(c *gin.Context) {
	q := catalog.Query{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.DefaultQuery("sort", catalog.SortDefault),
	}

	products, err := h.catalogService.ListProducts(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// getProduct handles product detail lookup
func (h *Handler) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// getCart returns the cart with its derived aggregates
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Cart())
}

type cartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// addCartItem adds one unit of a product to the cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	sess := currentSession(c)
	sess.AddToCart(*product)
	c.JSON(http.StatusOK, sess.Cart())
}

type updateQuantityRequest struct {
	// Pointer so a quantity of 0 (remove) survives binding
	Quantity *int `json:"quantity" binding:"required"`
}

// updateCartItem sets a line's quantity; <= 0 removes the line
func (h *Handler) updateCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sess := currentSession(c)
	sess.UpdateCartQuantity(productID, *req.Quantity)
	c.JSON(http.StatusOK, sess.Cart())
}

// removeCartItem removes a line by product id
func (h *Handler) removeCartItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	sess := currentSession(c)
	sess.RemoveFromCart(productID)
	c.JSON(http.StatusOK, sess.Cart())
}

// clearCart empties the cart
func (h *Handler) clearCart(c *gin.Context) {
	sess := currentSession(c)
	sess.ClearCart()
	c.JSON(http.StatusOK, sess.Cart())
}

// getWishlist returns the saved products and their count
func (h *Handler) getWishlist(c *gin.Context) {
	items, count := currentSession(c).Wishlist()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": count,
	})
}

// toggleWishlist atomically adds or removes a product
func (h *Handler) toggleWishlist(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	sess := currentSession(c)
	wishlisted := sess.ToggleWishlist(*product)
	items, count := sess.Wishlist()
	c.JSON(http.StatusOK, gin.H{
		"wishlisted": wishlisted,
		"items":      items,
		"count":      count,
	})
}

// removeFromWishlist removes a saved product by id
func (h *Handler) removeFromWishlist(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	sess := currentSession(c)
	sess.RemoveFromWishlist(productID)
	items, count := sess.Wishlist()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": count,
	})
}

// getNotifications returns the currently visible toasts
func (h *Handler) getNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": currentSession(c).Notifications(),
	})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// signUp registers a new shopper
func (h *Handler) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, token, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to sign up",
			"details": err.Error(),
		})
		return
	}

	h.bindSessionUser(c, user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"user":  user,
		"token": token,
	})
}

// logIn verifies credentials and issues a token
func (h *Handler) logIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, token, err := h.authService.LogIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to log in",
			"details": err.Error(),
		})
		return
	}

	h.bindSessionUser(c, user.ID)
	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

// bindSessionUser attaches the user to the caller's session when one
// was supplied alongside the credentials.
func (h *Handler) bindSessionUser(c *gin.Context, userID int64) {
	if sess, ok := h.sessions.Get(c.GetHeader(sessionHeader)); ok {
		sess.BindUser(userID)
	}
}

// placeOrder submits the session's cart for payment
func (h *Handler) placeOrder(c *gin.Context) {
	sess := currentSession(c)
	userID := c.GetInt64("user_id")
	idempotencyKey := c.GetHeader("Idempotency-Key")

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), userID, sess, idempotencyKey)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to place order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, payment, err := h.checkoutService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"items":   items,
		"payment": payment,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
