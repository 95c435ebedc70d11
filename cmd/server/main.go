package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sofrim/sofrim-server/internal/api"
	"github.com/sofrim/sofrim-server/internal/auth"
	"github.com/sofrim/sofrim-server/internal/db"
	"github.com/sofrim/sofrim-server/internal/lifecycle"
	"github.com/sofrim/sofrim-server/internal/ocr"
	"github.com/sofrim/sofrim-server/internal/storage"
)

func main() {
	// Initialize Auth
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	auth.Init(jwtSecret)

	// Initialize Database
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "data/sofrim.db"
	}
	database, err := db.New(dsn)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Initialize Services
	store := storage.NewFromEnv()
	lifecycleSvc := lifecycle.NewService(database)

	var engine ocr.Engine
	switch os.Getenv("OCR_ENGINE") {
	case "tesseract":
		engine = ocr.NewTesseract()
	default:
		engine = ocr.NewGemini(os.Getenv("GEMINI_API_KEY"))
	}

	// Initialize Handlers
	authHandler := &api.AuthHandler{DB: database}
	userHandler := &api.UserHandler{DB: database}
	bookHandler := &api.BookHandler{DB: database}
	pageHandler := &api.PageHandler{DB: database, Lifecycle: lifecycleSvc}
	adminHandler := &api.AdminHandler{DB: database, Lifecycle: lifecycleSvc}
	messageHandler := &api.MessageHandler{DB: database}
	uploadHandler := &api.UploadHandler{DB: database, Store: store}
	ocrHandler := &api.OCRHandler{Engine: engine}

	mw := &api.Middleware{DB: database}

	// Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /", api.Health)
	mux.HandleFunc("POST /auth", authHandler.Login)
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("GET /library", bookHandler.Library)
	mux.HandleFunc("GET /books/{id}", bookHandler.GetBook)
	mux.HandleFunc("GET /stats/weekly", bookHandler.WeeklyStats)
	mux.Handle("GET /thumbnails/", http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(store.ThumbnailsDir))))

	// Protected Routes
	mux.Handle("POST /books/{id}/claim", mw.Auth(http.HandlerFunc(pageHandler.Claim)))
	mux.Handle("POST /books/{id}/release", mw.Auth(http.HandlerFunc(pageHandler.Release)))
	mux.Handle("POST /books/{id}/complete", mw.Auth(http.HandlerFunc(pageHandler.Complete)))
	mux.Handle("GET /pages/history", mw.Auth(http.HandlerFunc(pageHandler.History)))
	mux.Handle("GET /page-content", mw.Auth(http.HandlerFunc(pageHandler.GetContent)))
	mux.Handle("POST /page-content", mw.Auth(http.HandlerFunc(pageHandler.SaveContent)))

	mux.Handle("GET /me", mw.Auth(http.HandlerFunc(userHandler.GetMe)))
	mux.Handle("GET /me/stats", mw.Auth(http.HandlerFunc(userHandler.MyStats)))
	mux.Handle("GET /me/activity", mw.Auth(http.HandlerFunc(userHandler.MyActivity)))
	mux.Handle("GET /users", mw.Auth(http.HandlerFunc(userHandler.ListUsers)))

	mux.Handle("GET /uploads", mw.Auth(http.HandlerFunc(uploadHandler.List)))
	mux.Handle("POST /uploads", mw.Auth(http.HandlerFunc(uploadHandler.Upload)))
	mux.Handle("POST /ocr", mw.Auth(http.HandlerFunc(ocrHandler.Recognize)))

	mux.Handle("GET /messages", mw.Auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /messages", mw.Auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("POST /messages/{id}/reply", mw.Auth(http.HandlerFunc(messageHandler.Reply)))

	// Admin Routes
	mux.Handle("POST /books", mw.Admin(http.HandlerFunc(bookHandler.CreateBook)))
	mux.Handle("DELETE /books/{id}", mw.Admin(http.HandlerFunc(bookHandler.DeleteBook)))
	mux.Handle("GET /books/{id}/history", mw.Admin(http.HandlerFunc(adminHandler.BookHistory)))
	mux.Handle("GET /admin/pages", mw.Admin(http.HandlerFunc(adminHandler.ListPages)))
	mux.Handle("PUT /admin/pages", mw.Admin(http.HandlerFunc(adminHandler.UpdatePage)))
	mux.Handle("GET /admin/users", mw.Admin(http.HandlerFunc(adminHandler.ListUsers)))
	mux.Handle("PUT /admin/users", mw.Admin(http.HandlerFunc(adminHandler.UpdateUser)))
	mux.Handle("DELETE /admin/users/{id}", mw.Admin(http.HandlerFunc(adminHandler.DeleteUser)))
	mux.Handle("POST /admin/messages", mw.Admin(http.HandlerFunc(adminHandler.Broadcast)))

	// Start Server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, api.LoggingMiddleware(mux)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
