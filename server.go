package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/middlewares"
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"bitbucket.org/mmdatafocus/parcels_backend/utils"
	"bitbucket.org/mmdatafocus/parcels_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("parcels-backend")

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// "dgt0": decimal greater than zero. Used on transfer quantities.
		_ = v.RegisterValidation("dgt0", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		})
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Correlation-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middlewares.CorrelationMiddleware())
	router.Use(middlewares.AuthMiddleware())

	fileStore := utils.GCSAttachmentStore{}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	authorized := router.Group("/", middlewares.RequireUser())

	authorized.POST("/parcels", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "SendParcel")
		defer span.End()

		var input models.NewParcel
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		parcel, err := workflow.SendParcel(ctx, fileStore, &input, userId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, parcel)
	})

	authorized.GET("/parcels", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		var isPosted *bool
		if raw, ok := c.GetQuery("is_posted"); ok {
			parsed, err := strconv.ParseBool(raw)
			if err == nil {
				isPosted = &parsed
			}
		}
		parcels, err := models.GetParcels(c.Request.Context(), limit, offset, isPosted)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, parcels)
	})

	authorized.GET("/parcels/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel id"})
			return
		}
		parcel, err := models.GetParcel(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, parcel)
	})

	authorized.POST("/parcels/:id/post", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "PostParcel")
		defer span.End()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel id"})
			return
		}
		var input models.PostParcelInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		parcel, err := workflow.PostParcel(ctx, id, &input, userId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, parcel)
	})

	authorized.PUT("/parcels/:id", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "UpdateParcel")
		defer span.End()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel id"})
			return
		}
		var input models.NewParcel
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		parcel, err := workflow.UpdateParcel(ctx, fileStore, id, &input, userId)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, parcel)
	})

	authorized.DELETE("/parcels/:id", func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "DeleteParcel")
		defer span.End()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel id"})
			return
		}
		userId, _ := utils.GetUserIdFromContext(ctx)
		if err := workflow.DeleteParcel(ctx, id, userId); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Connect to the database after the listener is up so the container
	// becomes healthy quickly.
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
}
