package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type (
	APP struct {
		Name      string
		Host      string
		Port      string
		Env       string
		JWTSecret string
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
	}
	S3 struct {
		Endpoint        string
		PublicEndpoint  string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketDocuments string
		BucketEvidence  string
		BucketAvatars   string
		BucketBackups   string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Storage struct {
		UploadURLTTL     time.Duration
		DownloadURLTTL   time.Duration
		URLCacheTTL      time.Duration
		RetentionWindow  time.Duration
		OrphanWindow     time.Duration
		MaxFileSizeBytes int64
	}

	Config struct {
		App     APP
		DB      DB
		S3      S3
		Redis   Redis
		MQ      MQ
		Storage Storage
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() Config {
	app := APP{
		Name:      getEnv("SERVICE_NAME", "archivostore"),
		Host:      getEnv("SERVICE_HOST", ""),
		Port:      getEnv("SERVICE_PORT", "8080"),
		Env:       getEnv("SERVICE_ENV", ""),
		JWTSecret: getEnv("SERVICE_JWT_SECRET", ""),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
	}
	s3 := S3{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicEndpoint:  getEnv("S3_PUBLIC_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketDocuments: getEnv("S3_BUCKET_DOCUMENTS", "sgp-documentos"),
		BucketEvidence:  getEnv("S3_BUCKET_EVIDENCE", "sgp-evidencias"),
		BucketAvatars:   getEnv("S3_BUCKET_AVATARS", "sgp-avatares"),
		BucketBackups:   getEnv("S3_BUCKET_BACKUPS", "sgp-backups"),
	}
	rd := Redis{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       int(getEnvInt("REDIS_DB", 0)),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "archivos"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "direct"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "archivos-eventos"),
	}
	st := Storage{
		UploadURLTTL:     getEnvDuration("STORAGE_UPLOAD_URL_TTL", 15*time.Minute),
		DownloadURLTTL:   getEnvDuration("STORAGE_DOWNLOAD_URL_TTL", time.Hour),
		URLCacheTTL:      getEnvDuration("STORAGE_URL_CACHE_TTL", 45*time.Minute),
		RetentionWindow:  getEnvDuration("STORAGE_RETENTION_WINDOW", 30*24*time.Hour),
		OrphanWindow:     getEnvDuration("STORAGE_ORPHAN_WINDOW", 24*time.Hour),
		MaxFileSizeBytes: getEnvInt("STORAGE_MAX_FILE_SIZE_BYTES", 5<<30),
	}

	return Config{
		App:     app,
		DB:      db,
		S3:      s3,
		Redis:   rd,
		MQ:      mq,
		Storage: st,
	}
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}

func (c Config) RedisAddr() (string, error) {
	if c.Redis.Host == "" || c.Redis.Port == "" {
		return "", fmt.Errorf("invalid Redis config: host and port are required")
	}
	return c.Redis.Host + ":" + c.Redis.Port, nil
}

// S3BucketNames lists every bucket the service manages, avatars last so the
// public-read policy step can follow creation in one pass.
func (c Config) S3BucketNames() []string {
	return []string{
		c.S3.BucketDocuments,
		c.S3.BucketEvidence,
		c.S3.BucketBackups,
		c.S3.BucketAvatars,
	}
}
