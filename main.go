package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/database"
	"github.com/camden-git/attendsysbackend/handlers"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/registry"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/camden-git/attendsysbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Fatalf("FATAL: Failed to create database directory: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	reg := registry.NewHNSWRegistry(signatureRepo, cfg.EmbeddingDimension, cfg.FaceEmbeddingModelName)
	if err := reg.LoadFromStore(); err != nil {
		log.Fatalf("FATAL: Failed to load signature registry: %v", err)
	}
	log.Printf("Signature registry ready with %d enrolled student(s)", reg.Count())

	log.Printf("Initializing embedding worker pool (Workers: %d, Queue Size: %d)...", cfg.NumEmbeddingWorkers, cfg.EmbeddingQueueSize)
	pool := workers.NewEmbeddingPool(cfg)
	defer pool.Stop()

	matcher := &recognition.Matcher{
		Registry:   reg,
		Threshold:  cfg.SimilarityThreshold,
		TopK:       cfg.MatchTopK,
		Timeout:    cfg.RegistryTimeout,
		MaxRetries: cfg.RegistryMaxRetries,
		Backoff:    cfg.RegistryBackoff,
	}
	pipeline := &recognition.Pipeline{
		Extractor:  pool,
		Matcher:    matcher,
		Roster:     studentRepo,
		Attendance: attendanceRepo,
	}
	service := services.NewAttendanceService(pipeline, pool, reg, classRepo, studentRepo, attendanceRepo)

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Similarity threshold: %.2f, top-k: %d", cfg.SimilarityThreshold, cfg.MatchTopK)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	attendanceHandler := &handlers.AttendanceHandler{
		Service:        service,
		AttendanceRepo: attendanceRepo,
		StudentRepo:    studentRepo,
		DB:             sqlDB,
	}
	studentHandler := &handlers.StudentHandler{Service: service, StudentRepo: studentRepo}
	classHandler := &handlers.ClassHandler{ClassRepo: classRepo, StudentRepo: studentRepo}

	r.Route("/api", func(r chi.Router) {
		r.Route("/students", func(r chi.Router) {
			r.Post("/", studentHandler.CreateStudent)
			r.Get("/", studentHandler.ListStudents)
			r.Route("/{student_id}", func(r chi.Router) {
				r.Get("/", studentHandler.GetStudent)
				r.Put("/", studentHandler.UpdateStudent)
				r.Delete("/", studentHandler.DeleteStudent)
				r.Route("/face", func(r chi.Router) {
					r.Post("/", studentHandler.EnrollFace)
					r.Delete("/", studentHandler.RemoveFace)
				})
			})
		})

		r.Route("/classes", func(r chi.Router) {
			r.Post("/", classHandler.CreateClass)
			r.Get("/", classHandler.ListClasses)
			r.Route("/{class_id}", func(r chi.Router) {
				r.Get("/", classHandler.GetClass)
				r.Delete("/", classHandler.DeleteClass)
				r.Route("/students", func(r chi.Router) {
					r.Post("/", classHandler.EnrollStudent)
					r.Get("/", classHandler.ListRoster)
				})
				r.Route("/attendance", func(r chi.Router) {
					r.Post("/", attendanceHandler.MarkManual)
					r.Get("/", attendanceHandler.ListAttendance)
					r.Post("/face", attendanceHandler.MarkByFace)
					r.Get("/dashboard", attendanceHandler.Dashboard)
				})
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
