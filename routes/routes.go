package routes

import (
	"go-storefront/controllers"
	"go-storefront/middleware"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(
	router *mux.Router,
	authController *controllers.AuthController,
	productController *controllers.ProductController,
	cartController *controllers.CartController,
	couponController *controllers.CouponController,
	paymentController *controllers.PaymentController,
	analyticsController *controllers.AnalyticsController,
) {
	// Public routes
	router.HandleFunc("/auth/signup", authController.Signup).Methods("POST")
	router.HandleFunc("/auth/login", authController.Login).Methods("POST")
	router.HandleFunc("/auth/logout", authController.Logout).Methods("POST")
	router.HandleFunc("/auth/refresh", authController.Refresh).Methods("POST")

	router.HandleFunc("/products/featured", productController.GetFeaturedProducts).Methods("GET")
	router.HandleFunc("/products/recommended", productController.GetRecommendedProducts).Methods("GET")
	router.HandleFunc("/products/category/{category}", productController.GetProductsByCategory).Methods("GET")

	// Protected routes
	protected := router.PathPrefix("/").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/profile", authController.GetProfile).Methods("GET")

	protected.HandleFunc("/cart", cartController.GetCart).Methods("GET")
	protected.HandleFunc("/cart", cartController.AddToCart).Methods("POST")
	protected.HandleFunc("/cart", cartController.RemoveFromCart).Methods("DELETE")
	protected.HandleFunc("/cart/{id}", cartController.UpdateQuantity).Methods("PUT")

	protected.HandleFunc("/coupons", couponController.GetCoupon).Methods("GET")
	protected.HandleFunc("/coupons/validate", couponController.ValidateCoupon).Methods("POST")

	protected.HandleFunc("/payment/checkout-session", paymentController.CreateCheckoutSession).Methods("POST")
	protected.HandleFunc("/payment/checkout-success", paymentController.CheckoutSuccess).Methods("POST")
	protected.HandleFunc("/payment/orders", paymentController.GetOrders).Methods("GET")

	// Admin routes
	admin := router.PathPrefix("/").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/products", productController.GetProducts).Methods("GET")
	admin.HandleFunc("/products", productController.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", productController.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/toggle-featured", productController.ToggleFeatured).Methods("PATCH")
	admin.HandleFunc("/analytics", analyticsController.GetAnalytics).Methods("GET")
}
