package config

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	GenAI    *genAIConfig
	Blob     *blobConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"presentai"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address          string        `envconfig:"PRESENTAI_ADDRESS" default:":8000"`
	MetricsAddress   string        `envconfig:"PRESENTAI_METRICS_ADDRESS" default:":8080"`
	BaseUrl          string        `envconfig:"PRESENTAI_BASE_URL" default:"http://localhost:8000"`
	DataDir          string        `envconfig:"PRESENTAI_DATA_DIR" default:"uploads"`
	LogLevel         string        `envconfig:"PRESENTAI_LOG_LEVEL" default:"info"`
	CorsOrigins      []string      `envconfig:"PRESENTAI_CORS_ORIGINS" default:"*"`
	MaxUploadBytes   int64         `envconfig:"PRESENTAI_MAX_UPLOAD_BYTES" default:"524288000"`
	MaxVideoDuration time.Duration `envconfig:"PRESENTAI_MAX_VIDEO_DURATION" default:"180s"`

	// Analysis tasks run one after another unless this is set; sequential
	// execution keeps the provider's rate limits comfortable.
	ConcurrentAnalysis bool `envconfig:"PRESENTAI_CONCURRENT_ANALYSIS" default:"false"`

	MediaPollInterval      time.Duration `envconfig:"PRESENTAI_MEDIA_POLL_INTERVAL" default:"2s"`
	MediaPollCeiling       time.Duration `envconfig:"PRESENTAI_MEDIA_POLL_CEILING" default:"300s"`
	GenerationPollInterval time.Duration `envconfig:"PRESENTAI_GENERATION_POLL_INTERVAL" default:"10s"`
	GenerationPollCeiling  time.Duration `envconfig:"PRESENTAI_GENERATION_POLL_CEILING" default:"600s"`

	TaskRetries      int           `envconfig:"PRESENTAI_TASK_RETRIES" default:"3"`
	TaskRetryBackoff time.Duration `envconfig:"PRESENTAI_TASK_RETRY_BACKOFF" default:"5s"`

	RetentionWindow time.Duration `envconfig:"PRESENTAI_RETENTION_WINDOW" default:"24h"`
	SweepInterval   time.Duration `envconfig:"PRESENTAI_SWEEP_INTERVAL" default:"1h"`

	Kafka           kafkaConfig
	MigrationFolder string `envconfig:"PRESENTAI_MIGRATIONS_FOLDER" default:""`
}

type genAIConfig struct {
	APIKey        string `envconfig:"GEMINI_API_KEY" default:""`
	AnalysisModel string `envconfig:"PRESENTAI_ANALYSIS_MODEL" default:"gemini-2.5-pro"`
	QuestionModel string `envconfig:"PRESENTAI_QUESTION_MODEL" default:"gemini-2.5-pro"`
	VideoModel    string `envconfig:"PRESENTAI_VIDEO_MODEL" default:"veo-3.1-generate-preview"`
	VideoEndpoint string `envconfig:"PRESENTAI_VIDEO_ENDPOINT" default:"https://generativelanguage.googleapis.com"`
}

type blobConfig struct {
	Endpoint  string `envconfig:"PRESENTAI_BLOB_ENDPOINT" default:""`
	Bucket    string `envconfig:"PRESENTAI_BLOB_BUCKET" default:"presentai-clips"`
	AccessKey string `envconfig:"PRESENTAI_BLOB_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"PRESENTAI_BLOB_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"PRESENTAI_BLOB_USE_SSL" default:"false"`
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"PRESENTAI_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"PRESENTAI_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"PRESENTAI_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"PRESENTAI_KAFKA_CLIENT_ID" default:""`

	SaramaConfig *sarama.Config
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault builds a config without touching the environment. Tests use it
// with the sqlite driver.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:                ":8000",
			MetricsAddress:         ":8080",
			BaseUrl:                "http://localhost:8000",
			DataDir:                "uploads",
			LogLevel:               "info",
			CorsOrigins:            []string{"*"},
			MaxUploadBytes:         524288000,
			MaxVideoDuration:       180 * time.Second,
			MediaPollInterval:      2 * time.Second,
			MediaPollCeiling:       300 * time.Second,
			GenerationPollInterval: 10 * time.Second,
			GenerationPollCeiling:  600 * time.Second,
			TaskRetries:            3,
			TaskRetryBackoff:       5 * time.Second,
			RetentionWindow:        24 * time.Hour,
			SweepInterval:          time.Hour,
		},
		GenAI: &genAIConfig{
			AnalysisModel: "gemini-2.5-pro",
			QuestionModel: "gemini-2.5-pro",
			VideoModel:    "veo-3.1-generate-preview",
			VideoEndpoint: "https://generativelanguage.googleapis.com",
		},
		Blob: &blobConfig{
			Bucket: "presentai-clips",
		},
	}
}
