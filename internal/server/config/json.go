package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/itemkeeper/internal/flagx"
	"github.com/dmitrijs2005/itemkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// strings such as "1h" and integer nanoseconds. Pointer fields distinguish
// "absent" from an explicit false/zero.
type JsonConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	GRPCHealthAddr  string          `json:"grpc_health_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	AuthDomain      string          `json:"auth_domain"`
	AuthAudience    string          `json:"auth_audience"`
	JWKSCacheTTL    *timex.Duration `json:"jwks_cache_ttl"`
	PoolSize        *int            `json:"pool_size"`
	PoolMaxOverflow *int            `json:"pool_max_overflow"`
	PoolRecycle     *timex.Duration `json:"pool_recycle"`
	PoolPrePing     *bool           `json:"pool_pre_ping"`
	MigrateOnStart  *bool           `json:"migrate_on_start"`
	LogBackend      string          `json:"log_backend"`
	LogLevel        string          `json:"log_level"`
	S3RootUser      string          `json:"s3_root_user"`
	S3RootPassword  string          `json:"s3_root_password"`
	S3Bucket        string          `json:"s3_bucket"`
	S3Region        string          `json:"s3_region"`
	S3BaseEndpoint  string          `json:"s3_base_endpoint"`
	SnapshotDir     string          `json:"snapshot_dir"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag into config. Without the flag nothing is loaded. Only keys
// present in the file override the current values. An unreadable or invalid
// file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AuthDomain, c.AuthDomain)
	setString(&config.AuthAudience, c.AuthAudience)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SnapshotDir, c.SnapshotDir)

	if c.JWKSCacheTTL != nil {
		config.JWKSCacheTTL = c.JWKSCacheTTL.Duration
	}
	if c.PoolSize != nil {
		config.PoolSize = *c.PoolSize
	}
	if c.PoolMaxOverflow != nil {
		config.PoolMaxOverflow = *c.PoolMaxOverflow
	}
	if c.PoolRecycle != nil {
		config.PoolRecycle = c.PoolRecycle.Duration
	}
	if c.PoolPrePing != nil {
		config.PoolPrePing = *c.PoolPrePing
	}
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
