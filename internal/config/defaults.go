package config

import "time"

// Default ports of the original stack: the learning engine publishes on
// 5000, Flowise on 3000, Ollama on 11434. The panel itself takes 8080/8081.
const (
	DefaultEngineURL  = "http://localhost:5000"
	DefaultFlowiseURL = "http://localhost:3000"
	DefaultLLMURL     = "http://localhost:11434"

	DefaultDashboardPort = 8080
	DefaultAdminPort     = 8081
)

// Default returns a fully populated configuration with conservative defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			DashboardPort: DefaultDashboardPort,
			AdminPort:     DefaultAdminPort,
			ReadTimeout:   Duration(30 * time.Second),
			WriteTimeout:  Duration(60 * time.Second),
		},
		Services: ServicesConfig{
			Engine:  ServiceEndpoint{BaseURL: DefaultEngineURL, Timeout: Duration(30 * time.Second)},
			Flowise: ServiceEndpoint{BaseURL: DefaultFlowiseURL, APIKeyEnv: "FLOWISE_API_KEY", Timeout: Duration(30 * time.Second)},
			LLM:     ServiceEndpoint{BaseURL: DefaultLLMURL, APIKeyEnv: "LLM_API_KEY", Timeout: Duration(120 * time.Second)},
		},
		Polling: PollingConfig{
			Interval:     Duration(10 * time.Second),
			ProbeTimeout: Duration(5 * time.Second),
			WindowSize:   60,
		},
		Chat: ChatConfig{
			DefaultModel: "phi3:mini",
			HistoryLimit: 50,
			Temperature:  0.7,
			MaxTokens:    1000,
		},
		EventStore: EventStoreConfig{
			Enabled: true,
			Path:    "panel-events.db",
		},
		Events: EventsConfig{
			Enabled:  false,
			NATSURL:  "nats://localhost:4222",
			Subject:  "selfsustain.status",
			KVBucket: "selfsustain-status",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Retry: RetryConfig{
			Backoff:    RetryBackoffLinear,
			Initial:    Duration(time.Second),
			Max:        Duration(30 * time.Second),
			MaxRetries: 2,
		},
		Stack: StackConfig{
			ComposeFile:    "docker-compose.yaml",
			ProjectName:    "ki_self_sustain",
			HealthDeadline: Duration(2 * time.Minute),
			AccessPoints: []AccessPoint{
				{Name: "Dashboard", URL: "http://localhost:8080"},
				{Name: "Backend API", URL: DefaultEngineURL},
				{Name: "Flowise", URL: DefaultFlowiseURL},
				{Name: "Ollama", URL: DefaultLLMURL},
			},
		},
	}
}
