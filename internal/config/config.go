package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config smarthotel-mr（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr        string
		APIKey      string
		AuthEnabled bool
	}
	Log struct {
		Level  string
		Format string
	}

	// StoreDriver: memory | mongo | postgres
	StoreDriver string
	Mongo       MongoConfig
	Database    DatabaseConfig

	Redis            RedisConfig
	TopologyCacheTTL time.Duration // 0 表示不缓存

	DigitalTwins   DigitalTwinsConfig
	SpatialAnchors SpatialAnchorsConfig

	Events struct {
		// Driver: none | redis | mqtt
		Driver       string
		StreamPrefix string
	}
	MQTT MQTTConfig
}

// DatabaseConfig PostgreSQL 配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LoadFromEnv 从环境变量加载配置（prefix 如 "DB"）
func (c *DatabaseConfig) LoadFromEnv(prefix string) {
	c.Host = getEnv(prefix+"_HOST", c.Host)
	c.Port = parseInt(getEnv(prefix+"_PORT", ""), c.Port)
	c.User = getEnv(prefix+"_USER", c.User)
	c.Password = getEnv(prefix+"_PASSWORD", c.Password)
	c.Database = getEnv(prefix+"_NAME", c.Database)
	c.SSLMode = getEnv(prefix+"_SSLMODE", c.SSLMode)
	c.MaxConns = parseInt(getEnv(prefix+"_MAX_CONNS", ""), c.MaxConns)
	c.MaxIdle = parseInt(getEnv(prefix+"_MAX_IDLE", ""), c.MaxIdle)
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadFromEnv 从环境变量加载Redis配置
func (c *RedisConfig) LoadFromEnv(prefix string) {
	c.Addr = getEnv(prefix+"_ADDR", c.Addr)
	c.Password = getEnv(prefix+"_PASSWORD", c.Password)
	c.DB = parseInt(getEnv(prefix+"_DB", ""), c.DB)
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	TopicPrefix string
}

// LoadFromEnv 从环境变量加载MQTT配置
func (c *MQTTConfig) LoadFromEnv(prefix string) {
	c.Broker = getEnv(prefix+"_BROKER", c.Broker)
	c.ClientID = getEnv(prefix+"_CLIENT_ID", c.ClientID)
	c.Username = getEnv(prefix+"_USERNAME", c.Username)
	c.Password = getEnv(prefix+"_PASSWORD", c.Password)
	c.TopicPrefix = getEnv(prefix+"_TOPIC_PREFIX", c.TopicPrefix)
}

// DigitalTwinsConfig Digital Twins 管理 API 及 AAD 认证配置
type DigitalTwinsConfig struct {
	ManagementAPIURL string
	AADInstance      string
	TenantID         string
	ResourceID       string
	ClientID         string
	ClientSecret     string
	Timeout          time.Duration
}

// SpatialAnchorsConfig Spatial Anchors 账号配置（/v1/apptoken）
type SpatialAnchorsConfig struct {
	AccountID      string
	TenantID       string
	ApplicationID  string
	ApplicationKey string
	AADInstance    string
	Resource       string
	STSURL         string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.APIKey = getEnv("API_KEY", "")
	cfg.HTTP.AuthEnabled = getEnv("AUTH_ENABLED", "true") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 默认内存存储，便于本地 `go run` 联调
	cfg.StoreDriver = getEnv("STORE_DRIVER", "memory")
	cfg.Mongo.URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", "smarthotel")

	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "smarthotel",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.TopologyCacheTTL = time.Duration(parseInt(getEnv("TOPOLOGY_CACHE_TTL", "0"), 0)) * time.Second

	cfg.DigitalTwins.ManagementAPIURL = getEnv("DIGITAL_TWINS_MANAGEMENT_API_URL", "")
	cfg.DigitalTwins.AADInstance = getEnv("DIGITAL_TWINS_AAD_INSTANCE", "https://login.microsoftonline.com/")
	cfg.DigitalTwins.TenantID = getEnv("DIGITAL_TWINS_TENANT_ID", "")
	cfg.DigitalTwins.ResourceID = getEnv("DIGITAL_TWINS_RESOURCE_ID", "0b07f429-9f4b-4714-9392-cc5e8e80c8b0")
	cfg.DigitalTwins.ClientID = getEnv("DIGITAL_TWINS_CLIENT_ID", "")
	cfg.DigitalTwins.ClientSecret = getEnv("DIGITAL_TWINS_CLIENT_SECRET", "")
	cfg.DigitalTwins.Timeout = time.Duration(parseInt(getEnv("DIGITAL_TWINS_TIMEOUT", "30"), 30)) * time.Second

	cfg.SpatialAnchors.AccountID = getEnv("SPATIAL_ANCHORS_ACCOUNT_ID", "")
	cfg.SpatialAnchors.TenantID = getEnv("SPATIAL_ANCHORS_TENANT_ID", "")
	cfg.SpatialAnchors.ApplicationID = getEnv("SPATIAL_ANCHORS_APPLICATION_ID", "")
	cfg.SpatialAnchors.ApplicationKey = getEnv("SPATIAL_ANCHORS_APPLICATION_KEY", "")
	cfg.SpatialAnchors.AADInstance = getEnv("SPATIAL_ANCHORS_AAD_INSTANCE", "https://login.microsoftonline.com/")
	cfg.SpatialAnchors.Resource = getEnv("SPATIAL_ANCHORS_RESOURCE", "https://sts.mixedreality.azure.com/")
	cfg.SpatialAnchors.STSURL = getEnv("SPATIAL_ANCHORS_STS_URL", "https://mrc-auth-prod.trafficmanager.net")

	cfg.Events.Driver = getEnv("EVENTS_DRIVER", "none")
	cfg.Events.StreamPrefix = getEnv("EVENTS_STREAM_PREFIX", "smarthotel:events:")
	cfg.MQTT = MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "smarthotel-mr",
		QoS:         1,
		TopicPrefix: "smarthotel/",
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
