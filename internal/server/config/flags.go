package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/proofofplace/internal/flagx"
)

// flagNames lists the flags parseFlags recognizes.
var flagNames = []string{"-a", "-g", "-u", "-driver", "-d", "-s", "-t", "-r", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-g string       gRPC bind address (e.g., ":50051")
//	-u string       public base URL for printed verification links
//	-driver string  database driver: postgres or sqlite
//	-d string       database DSN
//	-s string       JWT HMAC secret key
//	-t int          access token validity, minutes
//	-r string       Redis address for rate limiting
//	-l string       log level (debug, info, warn, error)
//
// Notes:
//   - os.Args is first filtered with flagx.FilterArgs so flags owned by other
//     components (-c, -env-file, subcommands) do not break parsing.
//   - The token validity flag is given in minutes and applied only when present.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t overrides only when given
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}

// ValueFlags returns every value-taking flag the server configuration reads
// from os.Args, so other tools sharing the command line can skip them.
func ValueFlags() []string {
	out := append([]string{}, flagNames...)
	return append(out, "-c", "-config", "--config", "-env-file", "--env-file")
}
