package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"petfoodstore/models"
	"petfoodstore/notify"
	"petfoodstore/order"
	"petfoodstore/payment"
	"petfoodstore/payment/momo"
	"petfoodstore/store/gormstore"
	"petfoodstore/utils"
	"petfoodstore/web/controllers"
	"petfoodstore/web/db"
	"petfoodstore/web/email"
	"petfoodstore/web/middleware"
)

func init() {
	utils.LoadEnv()
	db.Connect()
	db.Sync()
}

func main() {
	st := gormstore.New(db.DB)

	events := notify.Multi{
		&notify.StoreSink{Notifications: st},
		&email.Sink{Accounts: st},
	}

	orders := order.NewService(st, st, st, events)
	gateway := momo.NewClient(momo.ConfigFromEnv())
	payments := payment.NewService(st, st, gateway, orders, events)

	h := &controllers.Handler{
		Accounts:      st,
		Catalog:       st,
		Orders:        orders,
		Payments:      payments,
		Chats:         st,
		Notifications: st,
		Events:        events,
	}

	// PROCESSING payments with no gateway callback inside the window are
	// swept to FAILED
	go func() {
		window := 15 * time.Minute
		for {
			time.Sleep(time.Minute)
			if n, err := payments.SweepExpired(context.Background(), window); err != nil {
				log.Println("payment sweep:", err)
			} else if n > 0 {
				log.Println("payment sweep: failed", n, "expired payments")
			}
		}
	}()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          time.Hour,
	}))

	authLimiter := middleware.NewRateLimiter(15, time.Minute)
	authLimiter.StartCleanup(10 * time.Minute)
	auth := middleware.RequireAuth(st)
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleEmployee)
	admin := middleware.RequireRole(models.RoleAdmin)

	r.POST("/signup", authLimiter.Middleware(), h.Signup)
	r.POST("/login", authLimiter.Middleware(), h.Login)
	r.GET("/user", auth, h.User)

	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/admin/products", auth, admin, h.CreateProduct)
	r.PUT("/admin/products/:id", auth, admin, h.UpdateProduct)
	r.DELETE("/admin/products/:id", auth, admin, h.DeactivateProduct)

	r.POST("/orders", auth, h.CreateOrder)
	r.GET("/orders/my-orders", auth, h.MyOrders)
	r.GET("/orders/all", auth, staff, h.AllOrders)
	r.GET("/orders/status/:status", auth, staff, h.OrdersByStatus)
	r.GET("/orders/:id", auth, h.GetOrder)
	r.PUT("/orders/:id/status", auth, staff, h.UpdateOrderStatus)
	r.DELETE("/orders/:id", auth, h.CancelOrder)

	r.POST("/payments/initiate", authLimiter.Middleware(), auth, h.InitiatePayment)
	r.GET("/payments/status/:orderNumber", auth, h.PaymentStatus)
	r.GET("/payments/my-payments", auth, h.MyPayments)
	r.POST("/payments/momo/callback", h.MomoCallback)
	r.POST("/admin/payments/:id/refund", auth, admin, h.RefundPayment)
	r.POST("/admin/payments/:id/confirm", auth, staff, h.ConfirmBankTransfer)

	r.GET("/chat/rooms", auth, staff, h.ListChatRooms)
	r.POST("/chat/rooms", auth, h.OpenChatRoom)
	r.GET("/chat/rooms/:id/messages", auth, h.ListChatMessages)
	r.POST("/chat/rooms/:id/messages", auth, h.PostChatMessage)
	r.POST("/chat/rooms/:id/close", auth, h.CloseChatRoom)

	r.GET("/notifications", auth, h.MyNotifications)
	r.PUT("/notifications/:id/read", auth, h.MarkNotificationRead)

	r.Run(":" + utils.Getenv("GIN_PORT", "8080"))
}
