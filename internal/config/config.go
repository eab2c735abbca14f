package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the drawing game backend.
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Game      GameConfig
	Canvas    CanvasConfig
	AI        AIConfig
	S3        S3Config
	Redis     RedisConfig
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig WebSocket transport settings
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
	SendQueueSize   int
}

// CORSConfig CORS settings
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// GameConfig room state machine settings. TickInterval drives every phase
// timer; tests shrink it so a full round runs in milliseconds.
type GameConfig struct {
	MaxPlayers      int
	MinForceStart   int
	TopicDelayTicks int
	CountdownTicks  int
	RoundTicks      int
	TickInterval    time.Duration
}

// CanvasConfig composited raster dimensions
type CanvasConfig struct {
	Width  int
	Height int
}

// AIConfig Bedrock analysis/generation settings
type AIConfig struct {
	Enabled         bool
	AnalysisModelID string
	ImageModelID    string
	StageTimeout    time.Duration
}

// S3Config object store settings
type S3Config struct {
	Region          string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration
}

// RedisConfig result-status cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment.
func Load() *Config {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4096),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 5*time.Second),
			SendQueueSize:   getInt("WS_SEND_QUEUE_SIZE", 256),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		Game: GameConfig{
			MaxPlayers:      getInt("GAME_MAX_PLAYERS", 4),
			MinForceStart:   getInt("GAME_MIN_FORCE_START", 2),
			TopicDelayTicks: getInt("GAME_TOPIC_DELAY_TICKS", 3),
			CountdownTicks:  getInt("GAME_COUNTDOWN_TICKS", 3),
			RoundTicks:      getInt("GAME_ROUND_TICKS", 30),
			TickInterval:    getDuration("GAME_TICK_INTERVAL", time.Second),
		},
		Canvas: CanvasConfig{
			Width:  getInt("CANVAS_WIDTH", 800),
			Height: getInt("CANVAS_HEIGHT", 600),
		},
		AI: AIConfig{
			Enabled:         getBool("AI_ENABLED", false),
			AnalysisModelID: getEnv("AI_ANALYSIS_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
			ImageModelID:    getEnv("AI_IMAGE_MODEL_ID", "amazon.titan-image-generator-v2:0"),
			StageTimeout:    getDuration("AI_STAGE_TIMEOUT", 60*time.Second),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			BucketName:      getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpiry:   getDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
	}
}

// getEnv reads an env var with a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt reads an integer env var.
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool reads a boolean env var.
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration reads a duration env var. Bare numbers are seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
