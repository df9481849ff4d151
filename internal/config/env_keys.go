package config

// Environment Variable Keys
const (
	// EnvAppEnv 定義應用程式執行環境 (local, dev, prod)
	EnvAppEnv = "APP_ENV"

	// EnvPort 定義 HTTP API Port
	EnvPort = "PORT"

	// EnvGrpcPort 定義 gRPC Health Port
	EnvGrpcPort = "GRPC_PORT"

	// EnvInstanceID 定義實例 ID (K8s 可用 Pod 名稱)
	EnvInstanceID = "INSTANCE_ID"

	// EnvStorageType 定義持久層 (mysql, postgres, memory)
	EnvStorageType = "STORAGE_TYPE"

	// EnvRedisAddr 定義 Redis 服務地址 (host:port)
	EnvRedisAddr = "REDIS_ADDR"

	// EnvRedisPassword 定義 Redis 密碼
	EnvRedisPassword = "REDIS_PASSWORD"

	// EnvMySQLHost 定義 MySQL 主機
	EnvMySQLHost = "MYSQL_HOST"

	// EnvMySQLUser 定義 MySQL 使用者
	EnvMySQLUser = "MYSQL_USER"

	// EnvMySQLDB 定義 MySQL 資料庫名稱
	EnvMySQLDB = "MYSQL_DB"

	// EnvMySQLPort 定義 MySQL Port
	EnvMySQLPort = "MYSQL_PORT"

	// EnvMySQLPassword 定義 MySQL 密碼
	EnvMySQLPassword = "MYSQL_PASSWORD"

	// EnvPostgresDSN 定義 PostgreSQL 連線字串
	EnvPostgresDSN = "POSTGRES_DSN"

	// EnvNATSURL 定義 NATS 伺服器位址
	EnvNATSURL = "NATS_URL"

	// EnvSyncTransport 定義同步傳輸 (redis, nats, local)
	EnvSyncTransport = "SYNC_TRANSPORT"

	// EnvAuditPath 定義稽核日誌檔案路徑
	EnvAuditPath = "AUDIT_PATH"
)
