// Package config loads the service configuration.
//
// Values are resolved with the following priority, lowest first:
// built-in defaults, the JSON file named by -c or CONFIG, environment
// variables (a .env file is loaded when present), command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	RunAddr                  string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCAddr                 string        `env:"GRPC_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel                 string        `env:"LOG_LEVEL" validate:"loglevel"`
	ServiceName              string        `env:"SERVICE_NAME" validate:"required"`
	TrustedSubnet            string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ShutdownTimeout          time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ChannelCapacity          int           `env:"CHANNEL_CAPACITY" validate:"gt=0"`
	DelayBetweenQueueFetches time.Duration `env:"DELAY_BETWEEN_QUEUE_FETCHES" validate:"gt=0"`
	ConfigFile               string        `env:"CONFIG"`
}

// jsonConfig mirrors Config for the JSON file. Durations are written
// as strings such as "5s".
type jsonConfig struct {
	RunAddr                  string `json:"server_address"`
	GRPCAddr                 string `json:"grpc_address"`
	LogLevel                 string `json:"log_level"`
	ServiceName              string `json:"service_name"`
	TrustedSubnet            string `json:"trusted_subnet"`
	ShutdownTimeout          string `json:"shutdown_timeout"`
	ChannelCapacity          int    `json:"channel_capacity"`
	DelayBetweenQueueFetches string `json:"delay_between_queue_fetches"`
}

var defaultConfig = Config{
	RunAddr:                  "127.0.0.1:3000",
	GRPCAddr:                 "",
	LogLevel:                 "info",
	ServiceName:              "instagram_backend",
	TrustedSubnet:            "",
	ShutdownTimeout:          10 * time.Second,
	ChannelCapacity:          100,
	DelayBetweenQueueFetches: 2 * time.Second,
}

var allowedLogLevels = map[string]bool{
	"debug":  true,
	"info":   true,
	"warn":   true,
	"error":  true,
	"dpanic": true,
	"panic":  true,
	"fatal":  true,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing makes New ignore the command line.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs makes New parse args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.GRPCAddr == "" {
		values.GRPCAddr = defaults.GRPCAddr
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.ServiceName == "" {
		values.ServiceName = defaults.ServiceName
	}
	if values.TrustedSubnet == "" {
		values.TrustedSubnet = defaults.TrustedSubnet
	}
	if values.ShutdownTimeout == 0 {
		values.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if values.ChannelCapacity == 0 {
		values.ChannelCapacity = defaults.ChannelCapacity
	}
	if values.DelayBetweenQueueFetches == 0 {
		values.DelayBetweenQueueFetches = defaults.DelayBetweenQueueFetches
	}
}

func (c *Config) applyJSONFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", fileName, err)
	}

	var fromFile jsonConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parsing config file %q: %w", fileName, err)
	}

	var parsed Config
	parsed.RunAddr = fromFile.RunAddr
	parsed.GRPCAddr = fromFile.GRPCAddr
	parsed.LogLevel = fromFile.LogLevel
	parsed.ServiceName = fromFile.ServiceName
	parsed.TrustedSubnet = fromFile.TrustedSubnet
	parsed.ChannelCapacity = fromFile.ChannelCapacity

	if fromFile.ShutdownTimeout != "" {
		if parsed.ShutdownTimeout, err = time.ParseDuration(fromFile.ShutdownTimeout); err != nil {
			return fmt.Errorf("parsing shutdown_timeout: %w", err)
		}
	}
	if fromFile.DelayBetweenQueueFetches != "" {
		if parsed.DelayBetweenQueueFetches, err = time.ParseDuration(fromFile.DelayBetweenQueueFetches); err != nil {
			return fmt.Errorf("parsing delay_between_queue_fetches: %w", err)
		}
	}

	c.override(parsed)

	return nil
}

// override copies every non-zero field of src into c.
func (c *Config) override(src Config) {
	if src.RunAddr != "" {
		c.RunAddr = src.RunAddr
	}
	if src.GRPCAddr != "" {
		c.GRPCAddr = src.GRPCAddr
	}
	if src.LogLevel != "" {
		c.LogLevel = src.LogLevel
	}
	if src.ServiceName != "" {
		c.ServiceName = src.ServiceName
	}
	if src.TrustedSubnet != "" {
		c.TrustedSubnet = src.TrustedSubnet
	}
	if src.ShutdownTimeout != 0 {
		c.ShutdownTimeout = src.ShutdownTimeout
	}
	if src.ChannelCapacity != 0 {
		c.ChannelCapacity = src.ChannelCapacity
	}
	if src.DelayBetweenQueueFetches != 0 {
		c.DelayBetweenQueueFetches = src.DelayBetweenQueueFetches
	}
	if src.ConfigFile != "" {
		c.ConfigFile = src.ConfigFile
	}
}

func parseFlags(args []string) (Config, error) {
	var fromFlags Config

	flagSet := flag.NewFlagSet("instabackend", flag.ContinueOnError)
	flagSet.StringVar(&fromFlags.RunAddr, "a", "", "address and port to run the HTTP server")
	flagSet.StringVar(&fromFlags.GRPCAddr, "g", "", "address and port to run the gRPC health server")
	flagSet.StringVar(&fromFlags.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&fromFlags.ServiceName, "n", "", "service name reported by the health checks")
	flagSet.StringVar(&fromFlags.TrustedSubnet, "t", "", "CIDR allowed to read internal stats")
	flagSet.StringVar(&fromFlags.ConfigFile, "c", "", "JSON configuration file")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	return fromFlags, nil
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	var fromFlags Config
	if !options.disableFlagsParsing {
		var err error
		fromFlags, err = parseFlags(options.args)
		if err != nil {
			return nil, err
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := fromEnv.ConfigFile
	if fromFlags.ConfigFile != "" {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		if err := values.applyJSONFile(configFile); err != nil {
			return nil, err
		}
	}

	values.override(fromEnv)
	values.override(fromFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
