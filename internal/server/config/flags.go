package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/flagx"
)

// serverFlags lists the flags parseFlags owns; everything else on the command
// line belongs to other components.
var serverFlags = []string{
	"-a", "-l", "-d", "-i", "-u", "-k", "-p", "-o", "-r", "-q", "-m", "-b", "-v",
	"-s3-user", "-s3-password", "-s3-bucket", "-s3-region", "-s3-endpoint", "-snapshot-dir",
}

var serverBoolFlags = []string{"-q", "-m"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   REST bind address (e.g., ":8000")
//	-l string   gRPC health bind address (empty disables)
//	-d string   PostgreSQL DSN
//	-i string   identity provider domain
//	-u string   expected token audience
//	-k int      JWKS cache lifetime, minutes
//	-p int      pool size
//	-o int      pool overflow
//	-r int      pool recycle interval, minutes
//	-q bool     ping the pool before each request (use -q=false to disable)
//	-m bool     run migrations on start (use -m=false to disable)
//	-b string   log backend: slog or zap
//	-v string   log level: debug, info, warn or error
//	-s3-user, -s3-password, -s3-bucket, -s3-region, -s3-endpoint string
//	-snapshot-dir string   local snapshot directory when no bucket is set
//
// Duration flags are accepted as integers in minutes and only replace the
// current value when given, so sub-minute durations from the JSON file survive.
// Boolean flags take their value as -q=false or -q false.
func parseFlags(config *Config) {
	args := flagx.FilterArgsBool(os.Args[1:], serverFlags, serverBoolFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.GRPCHealthAddr, "l", config.GRPCHealthAddr, "address and port for gRPC health checks")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AuthDomain, "i", config.AuthDomain, "identity provider domain")
	fs.StringVar(&config.AuthAudience, "u", config.AuthAudience, "expected token audience")

	jwksCacheTTL := fs.Int("k", int(config.JWKSCacheTTL.Minutes()), "jwks cache lifetime (in minutes)")

	fs.IntVar(&config.PoolSize, "p", config.PoolSize, "connection pool size")
	fs.IntVar(&config.PoolMaxOverflow, "o", config.PoolMaxOverflow, "connection pool overflow")

	poolRecycle := fs.Int("r", int(config.PoolRecycle.Minutes()), "connection recycle interval (in minutes)")

	fs.BoolVar(&config.PoolPrePing, "q", config.PoolPrePing, "ping pool before use")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations on start")
	fs.StringVar(&config.LogBackend, "b", config.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug|info|warn|error)")

	fs.StringVar(&config.S3RootUser, "s3-user", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "s3-password", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket for backfill snapshots")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.SnapshotDir, "snapshot-dir", config.SnapshotDir, "local backfill snapshot directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			config.JWKSCacheTTL = time.Duration(*jwksCacheTTL) * time.Minute
		case "r":
			config.PoolRecycle = time.Duration(*poolRecycle) * time.Minute
		}
	})
}
