/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package.
	Call ParseFlags() once in main, never in init, otherwise `go test` flags
	will be rejected.
*/

package flag

import (
	"flag"
)

const (
	APIServer     = "api_server"
	ContentEngine = "content_engine"
)

var (
	IsDevelopment *bool
	ServiceName   *string
	AppConfigPath *string
)

func init() {
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName = flag.String("service", APIServer, "'api_server' or 'content_engine'")
	AppConfigPath = flag.String("app_config_path", "cmd/server/config.yaml", "path to the engine app config")
}

func ParseFlags() {
	flag.Parse()
}
