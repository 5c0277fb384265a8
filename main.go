package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	"github.com/mdadnanhusaain/ToDo-List/modules/activity"
	"github.com/mdadnanhusaain/ToDo-List/modules/api"
	"github.com/mdadnanhusaain/ToDo-List/modules/cache"
	"github.com/mdadnanhusaain/ToDo-List/modules/task"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Load configuration from environment
	httpPort := getEnvInt("PORT", 3000)
	dbPath := getEnv("DB_PATH", "tasks.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	timezone := getEnv("APP_TIMEZONE", "")
	weekStartName := getEnv("WEEK_START", "monday")
	clientOrigin := getEnv("CLIENT_ORIGIN", "*")
	redisAddr := getEnv("REDIS_ADDR", "")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "tasks:")
	activityCapacity := getEnvInt("ACTIVITY_CAPACITY", activity.DefaultCapacity)
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			log.Fatalf("Invalid APP_TIMEZONE %q: %v", timezone, err)
		}
		loc = l
	}
	weekStart, err := datekey.ParseWeekday(weekStartName)
	if err != nil {
		log.Fatalf("Invalid WEEK_START: %v", err)
	}

	log.Println("=== ToDo List ===")
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Database: %s", dbPath)
	log.Printf("Timezone: %s", loc)
	log.Printf("Week starts: %s", weekStart)
	log.Printf("Client origin: %s", clientOrigin)
	if redisAddr != "" {
		log.Printf("Redis: %s (TTL %s, prefix %s)", redisAddr, cacheTTL, cachePrefix)
	} else {
		log.Println("Redis: disabled")
	}

	logLevel := mono.LogLevelInfo
	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		logLevel = mono.LogLevelDebug
	case "warn", "warning":
		logLevel = mono.LogLevelWarn
	case "error":
		logLevel = mono.LogLevelError
	}
	logFormat := mono.LogFormatText
	if strings.EqualFold(getEnv("LOG_FORMAT", "text"), "json") {
		logFormat = mono.LogFormatJSON
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(logFormat),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	if redisAddr != "" {
		cachePlugin := cache.NewPluginModule(cache.Config{
			RedisAddr:     redisAddr,
			RedisPassword: redisPassword,
			Prefix:        cachePrefix,
			TTL:           cacheTTL,
		}, app.Logger())
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	}

	activityModule := activity.NewModule(activityCapacity, app.Logger())
	taskModule := task.NewModule(task.Config{
		DBPath:    dbPath,
		DBDebug:   dbDebug,
		Location:  loc,
		WeekStart: weekStart,
	}, app.Logger())
	apiModule := api.NewModule(api.Config{
		Port:         httpPort,
		ClientOrigin: clientOrigin,
	}, app.Logger())

	for _, m := range []mono.Module{activityModule, taskModule, apiModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register module %s: %v", m.Name(), err)
		}
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d/api", httpPort)
	log.Println("Endpoints:")
	log.Println("  GET    /api/health                 - Health check")
	log.Println("  GET    /api/activity               - Recent task changes")
	log.Println("  GET    /api/tasks                  - List all tasks")
	log.Println("  GET    /api/tasks/today            - Today's tasks")
	log.Println("  GET    /api/tasks/by-date?date=    - Tasks of one day")
	log.Println("  GET    /api/tasks/summary/week     - Weekly completed/pending counts")
	log.Println("  GET    /api/tasks/search?q=        - Search tasks")
	log.Println("  POST   /api/tasks                  - Create a task")
	log.Println("  GET    /api/tasks/:id              - Get a task")
	log.Println("  PUT    /api/tasks/:id              - Update a task")
	log.Println("  DELETE /api/tasks/:id              - Delete a task")
	log.Println("  PATCH  /api/tasks/:id/toggle       - Toggle completion")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
