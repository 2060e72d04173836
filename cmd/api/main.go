package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus/internal/attendance"
	"campus/internal/config"
	"campus/internal/directory"
	"campus/internal/enrollment"
	"campus/internal/httpmiddleware"
	"campus/internal/notify"
	"campus/internal/roster"
	"campus/internal/seed"
	"campus/internal/session"
	"campus/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", deps.health)

	deps.routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (store=%s)", cfg.HTTPPort, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// buildDeps wires repositories, the session manager, and the notice queue
// for the configured backend.
func buildDeps(cfg config.App) (*api, func(), error) {
	var (
		students    directory.StudentRepository
		courses     directory.CourseRepository
		faculty     directory.FacultyRepository
		enrollments enrollment.Repository
		records     attendance.Store
		cleanup     = func() {}
	)

	redisClient := store.NewRedis(cfg.RedisAddr)

	switch cfg.StoreBackend {
	case "postgres":
		db, err := store.NewDB(cfg.DatabaseURL, store.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLife,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(db.Client); err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup = func() { _ = db.Close() }
		students = directory.NewPostgresStudents(db.Client)
		courses = directory.NewPostgresCourses(db.Client)
		faculty = directory.NewPostgresFaculty(db.Client)
		enrollments = enrollment.NewPostgres(db.Client)
		records = attendance.NewPostgres(db.Client)
	default:
		memStudents := directory.NewMemoryStudents()
		memCourses := directory.NewMemoryCourses()
		memFaculty := directory.NewMemoryFaculty()
		memEnrollments := enrollment.NewMemory()
		memRecords := attendance.NewMemory()
		if err := seed.Load(context.Background(), seed.Stores{
			Students:    memStudents,
			Courses:     memCourses,
			Faculty:     memFaculty,
			Enrollments: memEnrollments,
			Attendance:  memRecords,
		}); err != nil {
			return nil, nil, err
		}
		students, courses, faculty = memStudents, memCourses, memFaculty
		enrollments, records = memEnrollments, memRecords
	}

	var notices notify.Queue
	if cfg.QueueBackend == "redis" {
		notices = notify.NewRedisQueue(redisClient.Client, "campus:notices")
	} else {
		notices = notify.NewInMemory(64)
	}

	return newAPI(cfg, students, courses, faculty, enrollments, records, notices, redisClient), cleanup, nil
}

// newAPI assembles the handler set around the shared stores.
func newAPI(
	cfg config.App,
	students directory.StudentRepository,
	courses directory.CourseRepository,
	faculty directory.FacultyRepository,
	enrollments enrollment.Repository,
	records attendance.Store,
	notices notify.Queue,
	redisClient *store.Redis,
) *api {
	resolver := roster.NewResolver(courses, students, enrollments)
	return &api{
		cfg:         cfg,
		students:    students,
		courses:     courses,
		faculty:     faculty,
		enrollments: enrollments,
		enrollSvc:   enrollment.NewService(enrollments, courses),
		records:     records,
		resolver:    resolver,
		sessions:    session.NewManager(resolver, records, cfg.SelectTimeout),
		notices:     notices,
		redis:       redisClient,
	}
}
