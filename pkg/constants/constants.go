package constants

// Queue message types.
const (
	QueueMessageTypeGrade     = "grade"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
)

// Per-test-case error messages.
const (
	TestMessageTimeout        = "Execution timed out after %d ms"
	TestMessageMemoryExceeded = "Execution exceeded memory limit of %d MB"
	TestMessageNoResult       = "Execution produced no result (exit code %d)"
)

// Sandbox backends.
const (
	SandboxBackendProcess = "process"
	SandboxBackendDocker  = "docker"
)

// Configuration defaults.
const (
	DefaultServerPort        = 8080
	DefaultNodeBin           = "node"
	DefaultSandboxBackend    = SandboxBackendProcess
	DefaultMaxWorkers        = 8
	DefaultQueueWaitMs       = 2000
	DefaultTestTimeoutMs     = 3000
	DefaultCheckTimeoutMs    = 5000
	DefaultMemoryLimitMB     = 128
	DefaultMaxOutputKB       = 64
	DefaultRunRootDir        = "/tmp/grader-runs"
	DefaultRuntimeImage      = "node:20-alpine"
	DefaultRabbitmqPort      = "5672"
	DefaultRabbitmqUser      = "guest"
	DefaultRabbitmqPassword  = "guest"
	DefaultGradeQueueName    = "grade_queue"
	DefaultResponseQueueName = "grade_response_queue"
)

// Sandbox run directory layout.
const (
	SourceFileName  = "solution.js"
	HarnessFileName = "harness.js"
	ResultFileName  = "result.json"
)

// Exit codes observed from the node runtime.
const (
	ExitCodeSuccess = 0
	ExitCodeAbort   = 134
	ExitCodeKilled  = 137
)

// Docker execution constants.
const (
	ContainerWorkDir     = "/work"
	ContainerRunnerUser  = "1000:1000"
	ContainerPidsLimit   = 64
	MinContainerMemoryMB = 16
)

// RabbitMQ specific constants.
const (
	RabbitMQReconnectTries = 10
)
