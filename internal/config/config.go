package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/pkg/constants"
)

type Config struct {
	ServerPort     int
	SandboxBackend string
	NodeBin        string
	RunRootDir     string
	RuntimeImage   string

	MaxWorkers    int
	QueueWaitMs   int
	TestTimeoutMs int
	MemoryLimitMB int
	MaxOutputKB   int

	// RabbitMQ ingestion is optional; it stays disabled unless RABBITMQ_HOST
	// is configured.
	RabbitMQEnabled   bool
	RabbitMQURL       string
	GradeQueueName    string
	ResponseQueueName string
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")

	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("failed to stat .env file with error: %v", err)
		}
	} else {
		if os.Getenv("ENV") == "PROD" {
			logger.Warn(".env file detected in production environment. This is not recommended.")
		}
		err = godotenv.Load(".env")
		if err != nil {
			logger.Fatalf("failed to load .env file with error: %v", err)
		}
	}

	serverPort := intEnv("SERVER_PORT", constants.DefaultServerPort)
	sandboxBackend := strEnv("SANDBOX_BACKEND", constants.DefaultSandboxBackend)
	nodeBin := strEnv("NODE_BIN", constants.DefaultNodeBin)
	runRootDir := strEnv("RUN_ROOT_DIR", constants.DefaultRunRootDir)
	runtimeImage := strEnv("RUNTIME_IMAGE", constants.DefaultRuntimeImage)

	maxWorkers := intEnv("MAX_WORKERS", constants.DefaultMaxWorkers)
	queueWaitMs := intEnv("QUEUE_WAIT_MS", constants.DefaultQueueWaitMs)
	testTimeoutMs := intEnv("TEST_TIMEOUT_MS", constants.DefaultTestTimeoutMs)
	memoryLimitMB := intEnv("MEMORY_LIMIT_MB", constants.DefaultMemoryLimitMB)
	maxOutputKB := intEnv("MAX_OUTPUT_KB", constants.DefaultMaxOutputKB)

	rabbitURL, rabbitEnabled := rabbitmqConfig()
	gradeQueueName := strEnv("GRADE_QUEUE_NAME", constants.DefaultGradeQueueName)
	responseQueueName := strEnv("RESPONSE_QUEUE_NAME", constants.DefaultResponseQueueName)

	return &Config{
		ServerPort:        serverPort,
		SandboxBackend:    sandboxBackend,
		NodeBin:           nodeBin,
		RunRootDir:        runRootDir,
		RuntimeImage:      runtimeImage,
		MaxWorkers:        maxWorkers,
		QueueWaitMs:       queueWaitMs,
		TestTimeoutMs:     testTimeoutMs,
		MemoryLimitMB:     memoryLimitMB,
		MaxOutputKB:       maxOutputKB,
		RabbitMQEnabled:   rabbitEnabled,
		RabbitMQURL:       rabbitURL,
		GradeQueueName:    gradeQueueName,
		ResponseQueueName: responseQueueName,
	}
}

func rabbitmqConfig() (string, bool) {
	logger := logger.NewNamedLogger("config")

	rabbitmqHost := os.Getenv("RABBITMQ_HOST")
	if rabbitmqHost == "" {
		logger.Info("RABBITMQ_HOST is not set, queue ingestion disabled")
		return "", false
	}

	rabbitmqPortStr := os.Getenv("RABBITMQ_PORT")
	if rabbitmqPortStr == "" {
		rabbitmqPortStr = constants.DefaultRabbitmqPort
		logger.Warnf("RABBITMQ_PORT is not set, using default value %s", constants.DefaultRabbitmqPort)
	}
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}

	rabbitmqUser := os.Getenv("RABBITMQ_USER")
	if rabbitmqUser == "" {
		rabbitmqUser = constants.DefaultRabbitmqUser
		logger.Warnf("RABBITMQ_USER is not set, using default value %s", constants.DefaultRabbitmqUser)
	}
	rabbitmqPassword := os.Getenv("RABBITMQ_PASSWORD")
	if rabbitmqPassword == "" {
		rabbitmqPassword = constants.DefaultRabbitmqPassword
		logger.Warnf("RABBITMQ_PASSWORD is not set, using default value %s", constants.DefaultRabbitmqPassword)
	}

	rabbitmqURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)

	return rabbitmqURL, true
}

func strEnv(key, fallback string) string {
	logger := logger.NewNamedLogger("config")

	value := os.Getenv(key)
	if value == "" {
		logger.Warnf("%s is not set, using default value %s", key, fallback)
		return fallback
	}
	return value
}

func intEnv(key string, fallback int) int {
	logger := logger.NewNamedLogger("config")

	valueStr := os.Getenv(key)
	if valueStr == "" {
		logger.Warnf("%s is not set, using default value %d", key, fallback)
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Fatalf("failed to parse %s with error: %v", key, err)
	}
	return value
}
