package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, secrets, queue URLs)
// - default: Values common across all environments (intervals, buffer sizes)
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	Lot    LotConfig
	Sweep  SweepConfig
	Hub    HubConfig
	Sensor SensorConfig
	Gate   GateConfig
	DB     DBConfig
	AWS    AWSConfig
	CORS   CORSConfig
	Log    LogConfig
	JWT    JWTConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

// LotConfig describes the single lot this instance is the authority for.
type LotConfig struct {
	Slots []string `envconfig:"LOT_SLOTS" default:"1,2,3,4,5,6"`
}

type SweepConfig struct {
	Interval         time.Duration `envconfig:"SWEEP_INTERVAL" default:"60s"`
	BookingStartSkew time.Duration `envconfig:"BOOKING_START_SKEW" default:"2m"`
	PresenceGrace    time.Duration `envconfig:"PRESENCE_GRACE" default:"10m"`
}

type HubConfig struct {
	SubscriberBuffer int `envconfig:"HUB_BUFFER" default:"64"`
}

type SensorConfig struct {
	// Shared secret for the HTTP presence ingest; empty disables the check.
	APIKey string `envconfig:"SENSOR_API_KEY" default:""`
}

type GateConfig struct {
	// MQTT topic pattern for gate-open commands; %s is the slot number.
	CommandTopic string `envconfig:"GATE_COMMAND_TOPIC" default:"parking/gate/%s/command"`
}

type DBConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"parking"`
	Password string `envconfig:"DB_PASSWORD" default:"parking"`
	DBName   string `envconfig:"DB_NAME" default:"parking_engine"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type AWSConfig struct {
	Region           string `envconfig:"AWS_REGION" default:"ap-southeast-1"`
	SQSEventQueueURL string `envconfig:"SQS_EVENT_QUEUE_URL" default:""`
	IoTEndpoint      string `envconfig:"IOT_MQTT_ENDPOINT" default:""`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Sensor-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		Lot: LotConfig{
			Slots: []string{"1", "2", "3", "4", "5"},
		},
		Sweep: SweepConfig{
			Interval:         time.Minute,
			BookingStartSkew: 2 * time.Minute,
			PresenceGrace:    10 * time.Minute,
		},
		Hub: HubConfig{
			SubscriberBuffer: 8,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret: "test-secret",
		},
	}
}
