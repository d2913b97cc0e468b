package utils

import (
	"github.com/launchdeck-platform/models"
)

// EngineConfig holds the substrate configuration for one database engine
type EngineConfig struct {
	Port           int
	Image          string
	DefaultVersion string
	ProbeKind      string // "postgres", "redis" or "tcp"
	UserEnvVar     string
	PasswordEnvVar string
	DatabaseEnvVar string
	DefaultUser    string
}

// engineConfigs is the fixed engine capability matrix. Provisioning
// requests outside this set are rejected up front.
var engineConfigs = map[models.ResourceEngine]EngineConfig{
	models.EnginePostgreSQL: {
		Port:           5432,
		Image:          "postgres",
		DefaultVersion: "16",
		ProbeKind:      "postgres",
		UserEnvVar:     "POSTGRES_USER",
		PasswordEnvVar: "POSTGRES_PASSWORD",
		DatabaseEnvVar: "POSTGRES_DB",
		DefaultUser:    "app",
	},
	models.EngineMySQL: {
		Port:           3306,
		Image:          "mysql",
		DefaultVersion: "8.0",
		ProbeKind:      "tcp",
		UserEnvVar:     "MYSQL_USER",
		PasswordEnvVar: "MYSQL_PASSWORD",
		DatabaseEnvVar: "MYSQL_DATABASE",
		DefaultUser:    "app",
	},
	models.EngineRedis: {
		Port:           6379,
		Image:          "redis",
		DefaultVersion: "7",
		ProbeKind:      "redis",
		PasswordEnvVar: "REDIS_PASSWORD",
		DefaultUser:    "default",
	},
	models.EngineMongoDB: {
		Port:           27017,
		Image:          "mongo",
		DefaultVersion: "7.0",
		ProbeKind:      "tcp",
		UserEnvVar:     "MONGO_INITDB_ROOT_USERNAME",
		PasswordEnvVar: "MONGO_INITDB_ROOT_PASSWORD",
		DefaultUser:    "app",
	},
}

// GetEngineConfig returns the capability entry for an engine.
// The second return is false for unsupported engines.
func GetEngineConfig(engine models.ResourceEngine) (EngineConfig, bool) {
	cfg, ok := engineConfigs[engine]
	return cfg, ok
}

// GetEngineDefaultVersion returns the version used when the request omits one
func GetEngineDefaultVersion(engine models.ResourceEngine) string {
	if cfg, ok := engineConfigs[engine]; ok {
		return cfg.DefaultVersion
	}
	return "latest"
}
