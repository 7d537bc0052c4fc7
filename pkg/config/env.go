package config

// EnvPrefix namespaces every variable; each field also binds to its bare name.
const EnvPrefix = "J4E"

const (
	AppEnvDev     = "dev"
	AppEnvStaging = "staging"
	AppEnvProd    = "prod"
)

const (
	DownloadSourceLocal = "local"
	DownloadSourceMinio = "minio"
)

const (
	EnvAppEnv            = "APP_ENV"
	EnvPort              = "PORT"
	EnvDBDSN             = "DATABASE_URL"
	EnvDBHost            = "DB_HOST"
	EnvDBUser            = "DB_USER"
	EnvDBName            = "DB_NAME"
	EnvRedisURL          = "REDIS_URL"
	EnvJWTSecret         = "JWT_SECRET_KEY"
	EnvJWTExpMins        = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvRefreshTokenDays  = "REFRESH_TOKEN_EXPIRE_DAYS"
	EnvRazorpayKeyID     = "RAZORPAY_KEY_ID"
	EnvRazorpaySecret    = "RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhook   = "RAZORPAY_WEBHOOK_SECRET"
	EnvSubscriptionPrice = "SUBSCRIPTION_PRICE"
	EnvCORSOrigins       = "CORS_ORIGINS"
	EnvDownloadSource    = "DOWNLOAD_SOURCE"
	EnvDownloadFilePath  = "DOWNLOAD_FILE_PATH"
	EnvMinioEndpoint     = "MINIO_ENDPOINT"
	EnvMinioBucket       = "MINIO_BUCKET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
