package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/opsdesk/opsdesk-api/internal/cache"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/constants"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/handlers"
	"github.com/opsdesk/opsdesk-api/internal/logging"
	"github.com/opsdesk/opsdesk-api/internal/middleware"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/services"
	"github.com/opsdesk/opsdesk-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set up logging and Gin mode
	logging.Setup(cfg.GinMode)
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Redis store")
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionName, store))

	// Initialize query cache and object store
	queryCache, err := cache.NewRedis(redisAddr, cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis cache")
	}
	objectStore := storage.ObjectStore(storage.NewS3(cfg.S3Bucket, cfg.S3Region))
	if cfg.S3Bucket == "" {
		log.Warn("S3_BUCKET not set, storing documents in memory")
		objectStore = storage.NewMemory()
	}

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	customTypeRepo := repository.NewCustomTypeRepository(db)
	contactRepo := repository.NewContactRepository(db)
	itemRepo := repository.NewItemRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	dealRepo := repository.NewDealRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	timeEntryRepo := repository.NewTimeEntryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	businessService := services.NewBusinessService(businessRepo, taskRepo, dealRepo, invoiceRepo, timeEntryRepo, queryCache)
	inviteService := services.NewInviteService(inviteRepo, userRepo, queryCache)
	customTypeService := services.NewCustomTypeService(customTypeRepo, queryCache)
	contactService := services.NewContactService(contactRepo, queryCache)
	itemService := services.NewItemService(itemRepo, queryCache)
	taskService := services.NewTaskService(taskRepo, queryCache)
	calendarService := services.NewCalendarService(calendarRepo, taskRepo, queryCache)
	documentService := services.NewDocumentService(documentRepo, objectStore, queryCache)
	dealService := services.NewDealService(dealRepo, queryCache)
	invoiceService := services.NewInvoiceService(invoiceRepo, queryCache)
	timeEntryService := services.NewTimeEntryService(timeEntryRepo, queryCache)
	notificationService := services.NewNotificationService(notificationRepo, queryCache)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	businessHandler := handlers.NewBusinessHandler(businessService, inviteService)
	customTypeHandler := handlers.NewCustomTypeHandler(customTypeService)
	contactHandler := handlers.NewContactHandler(contactService)
	itemHandler := handlers.NewItemHandler(itemService)
	taskHandler := handlers.NewTaskHandler(taskService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	dealHandler := handlers.NewDealHandler(dealService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	timeEntryHandler := handlers.NewTimeEntryHandler(timeEntryService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "OpsDesk API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Accepting an invite needs a logged-in user, but the user has no
		// business membership yet.
		api.POST("/invites/accept", middleware.RequireAuth(), businessHandler.AcceptInvite)

		// Everything below is scoped to the caller's business
		biz := api.Group("")
		biz.Use(middleware.RequireAuth(), middleware.RequireBusinessAccess(businessRepo))
		write := middleware.RequireWriter()
		manage := middleware.RequireManager()
		{
			// Business settings and membership
			biz.GET("/business", businessHandler.GetBusiness)
			biz.PATCH("/business", manage, businessHandler.UpdateBusiness)
			biz.GET("/business/dashboard", businessHandler.Dashboard)
			biz.GET("/business/members", businessHandler.ListMembers)
			biz.PATCH("/business/members/:user_id", manage, businessHandler.ChangeMemberRole)
			biz.DELETE("/business/members/:user_id", manage, businessHandler.RemoveMember)
			biz.POST("/business/invites", manage, businessHandler.CreateInvite)
			biz.GET("/business/invites", manage, businessHandler.ListInvites)
			biz.DELETE("/business/invites/:id", manage, businessHandler.RevokeInvite)

			// Custom types
			biz.GET("/custom-types", customTypeHandler.ListCustomTypes)
			biz.POST("/custom-types", write, customTypeHandler.CreateCustomType)
			biz.PATCH("/custom-types/:id", write, customTypeHandler.RenameCustomType)
			biz.DELETE("/custom-types/:id", write, customTypeHandler.DeactivateCustomType)

			// Contacts
			biz.GET("/contacts", contactHandler.ListContacts)
			biz.POST("/contacts", write, contactHandler.CreateContact)
			biz.GET("/contacts/export", contactHandler.ExportContacts)
			biz.POST("/contacts/import", write, contactHandler.ImportContacts)
			biz.POST("/contacts/bulk-delete", write, contactHandler.BulkDeleteContacts)
			biz.GET("/contacts/:id", contactHandler.GetContact)
			biz.PATCH("/contacts/:id", write, contactHandler.UpdateContact)
			biz.DELETE("/contacts/:id", write, contactHandler.DeleteContact)
			biz.POST("/contacts/:id/items/:item_id", write, contactHandler.LinkItem)
			biz.DELETE("/contacts/:id/items/:item_id", write, contactHandler.UnlinkItem)

			// Items
			biz.GET("/items", itemHandler.ListItems)
			biz.POST("/items", write, itemHandler.CreateItem)
			biz.POST("/items/bulk-delete", write, itemHandler.BulkDeleteItems)
			biz.GET("/items/:id", itemHandler.GetItem)
			biz.PATCH("/items/:id", write, itemHandler.UpdateItem)
			biz.DELETE("/items/:id", write, itemHandler.DeleteItem)
			biz.GET("/items/:id/notes", itemHandler.ListNotes)
			biz.POST("/items/:id/notes", write, itemHandler.AddNote)
			biz.DELETE("/items/:id/notes/:note_id", write, itemHandler.DeleteNote)

			// Tasks
			biz.GET("/tasks", taskHandler.ListTasks)
			biz.POST("/tasks", write, taskHandler.CreateTask)
			biz.GET("/tasks/mine", taskHandler.MyTasks)
			biz.POST("/tasks/bulk-delete", write, taskHandler.BulkDeleteTasks)
			biz.POST("/tasks/bulk-status", write, taskHandler.BulkUpdateTaskStatus)
			biz.GET("/tasks/:id", taskHandler.GetTask)
			biz.PATCH("/tasks/:id", write, taskHandler.UpdateTask)
			biz.DELETE("/tasks/:id", write, taskHandler.DeleteTask)
			biz.POST("/tasks/:id/assign", write, taskHandler.AssignTask)
			biz.GET("/tasks/:id/comments", taskHandler.ListTaskComments)
			biz.POST("/tasks/:id/comments", write, taskHandler.CommentTask)
			biz.GET("/tasks/:id/activity", taskHandler.ListTaskActivity)

			// Calendar
			biz.GET("/calendar", calendarHandler.ListEntries)
			biz.POST("/calendar", write, calendarHandler.CreateEntry)
			biz.GET("/calendar/team", calendarHandler.TeamEntries)
			biz.GET("/calendar/:id", calendarHandler.GetEntry)
			biz.PATCH("/calendar/:id", write, calendarHandler.UpdateEntry)
			biz.DELETE("/calendar/:id", write, calendarHandler.DeleteEntry)
			biz.POST("/calendar/:id/respond", calendarHandler.RespondEntry)

			// Documents
			biz.GET("/documents", documentHandler.ListDocuments)
			biz.POST("/documents", write, documentHandler.UploadDocument)
			biz.GET("/documents/:id", documentHandler.GetDocument)
			biz.PATCH("/documents/:id", write, documentHandler.RenameDocument)
			biz.DELETE("/documents/:id", write, documentHandler.DeleteDocument)
			biz.GET("/documents/:id/download", documentHandler.DownloadDocument)
			biz.GET("/documents/:id/share", documentHandler.ShareDocument)
			biz.POST("/documents/:id/versions", write, documentHandler.UploadVersion)
			biz.GET("/documents/:id/versions", documentHandler.ListVersions)
			biz.GET("/documents/:id/activity", documentHandler.ListDocumentActivity)

			// Pipeline stages and deals
			biz.GET("/pipeline/stages", dealHandler.ListStages)
			biz.POST("/pipeline/stages", manage, dealHandler.CreateStage)
			biz.PATCH("/pipeline/stages/:id", manage, dealHandler.UpdateStage)
			biz.DELETE("/pipeline/stages/:id", manage, dealHandler.DeleteStage)
			biz.GET("/deals", dealHandler.ListDeals)
			biz.POST("/deals", write, dealHandler.CreateDeal)
			biz.GET("/deals/board", dealHandler.Board)
			biz.GET("/deals/:id", dealHandler.GetDeal)
			biz.PATCH("/deals/:id", write, dealHandler.UpdateDeal)
			biz.DELETE("/deals/:id", write, dealHandler.DeleteDeal)
			biz.POST("/deals/:id/move", write, dealHandler.MoveDeal)
			biz.POST("/deals/:id/notes", write, dealHandler.AddDealNote)
			biz.GET("/deals/:id/activity", dealHandler.ListDealActivity)

			// Invoices
			biz.GET("/invoices", invoiceHandler.ListInvoices)
			biz.POST("/invoices", write, invoiceHandler.CreateInvoice)
			biz.POST("/invoices/mark-overdue", write, invoiceHandler.MarkOverdue)
			biz.GET("/invoices/:id", invoiceHandler.GetInvoice)
			biz.PATCH("/invoices/:id", write, invoiceHandler.UpdateInvoice)
			biz.DELETE("/invoices/:id", write, invoiceHandler.DeleteInvoice)
			biz.POST("/invoices/:id/status", write, invoiceHandler.ChangeInvoiceStatus)
			biz.POST("/invoices/:id/line-items", write, invoiceHandler.AddLineItem)
			biz.PATCH("/invoices/:id/line-items/:line_id", write, invoiceHandler.UpdateLineItem)
			biz.DELETE("/invoices/:id/line-items/:line_id", write, invoiceHandler.DeleteLineItem)
			biz.POST("/invoices/:id/payments", write, invoiceHandler.RecordPayment)

			// Time tracking
			biz.GET("/time-entries", timeEntryHandler.ListEntries)
			biz.POST("/time-entries", write, timeEntryHandler.CreateEntry)
			biz.POST("/time-entries/start", write, timeEntryHandler.StartTimer)
			biz.POST("/time-entries/stop", write, timeEntryHandler.StopTimer)
			biz.GET("/time-entries/active", timeEntryHandler.ActiveTimer)
			biz.PATCH("/time-entries/:id", write, timeEntryHandler.UpdateEntry)
			biz.DELETE("/time-entries/:id", write, timeEntryHandler.DeleteEntry)

			// Notifications
			biz.GET("/notifications", notificationHandler.ListNotifications)
			biz.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			biz.POST("/notifications/:id/read", notificationHandler.MarkRead)
			biz.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		}
	}

	// Start server
	log.WithField("addr", cfg.ListenAddr).Info("Server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
