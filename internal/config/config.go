package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/strkey"
)

// Keys, read from the environment with the PIWALLET_ prefix or from a config file.
const (
	HorizonURLKey         = "HORIZON_URL"
	NetworkPassphraseKey  = "NETWORK_PASSPHRASE"
	DefaultDestinationKey = "DEFAULT_DESTINATION"
	MinReserveKey         = "MIN_RESERVE"
	PlanningFeeKey        = "PLANNING_FEE"
	BaseFeeKey            = "BASE_FEE"
	MemoKey               = "MEMO"
	TxTimeoutKey          = "TX_TIMEOUT"
	RequestTimeoutKey     = "REQUEST_TIMEOUT"
	RateLimitKey          = "RATE_LIMIT"
	ListenAddrKey         = "LISTEN_ADDR"
	CORSOriginsKey        = "CORS_ORIGINS"
	LogLevelKey           = "LOG_LEVEL"
	LogFormatKey          = "LOG_FORMAT"

	envPrefix = "PIWALLET"

	// Network limits.
	maxMemoBytes = 28
	minBaseFee   = 100
)

// Config holds all configurable parameters for the wallet service.
type Config struct {
	// Ledger network
	HorizonURL        string
	NetworkPassphrase string

	// Transfer policy
	DefaultDestination string
	MinReserve         decimal.Decimal
	PlanningFee        decimal.Decimal

	// Transaction assembly
	BaseFee   int64 // stroops
	Memo      string
	TxTimeout time.Duration

	// Outbound requests
	RequestTimeout time.Duration
	RateLimit      int

	// HTTP adapter
	ListenAddr  string
	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

// Default returns a Config populated with default values for Pi mainnet.
func Default() Config {
	return Config{
		HorizonURL:        "https://api.mainnet.minepi.com",
		NetworkPassphrase: "Pi Network",

		DefaultDestination: "GA6HYCTPYDQGPM4US3H5KIZGHWG2IP3SXX3WXX7ERKHZYKK4KZMUTLFI",
		MinReserve:         decimal.RequireFromString("0.05"),
		PlanningFee:        decimal.RequireFromString("0.01"),

		BaseFee:   100_000, // 0.01 Pi
		Memo:      "Pi Wallet Scanner auto-send",
		TxTimeout: 30 * time.Second,

		RequestTimeout: 15 * time.Second,
		RateLimit:      10,

		ListenAddr:  ":3000",
		CORSOrigins: []string{"*"},

		LogLevel:  "info",
		LogFormat: "text",
	}
}

func newViper() *viper.Viper {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault(HorizonURLKey, def.HorizonURL)
	v.SetDefault(NetworkPassphraseKey, def.NetworkPassphrase)
	v.SetDefault(DefaultDestinationKey, def.DefaultDestination)
	v.SetDefault(MinReserveKey, def.MinReserve.String())
	v.SetDefault(PlanningFeeKey, def.PlanningFee.String())
	v.SetDefault(BaseFeeKey, def.BaseFee)
	v.SetDefault(MemoKey, def.Memo)
	v.SetDefault(TxTimeoutKey, def.TxTimeout)
	v.SetDefault(RequestTimeoutKey, def.RequestTimeout)
	v.SetDefault(RateLimitKey, def.RateLimit)
	v.SetDefault(ListenAddrKey, def.ListenAddr)
	v.SetDefault(CORSOriginsKey, strings.Join(def.CORSOrigins, ","))
	v.SetDefault(LogLevelKey, def.LogLevel)
	v.SetDefault(LogFormatKey, def.LogFormat)
	return v
}

// FromEnv returns a Config populated from environment variables,
// falling back to defaults for unset or unparsable values.
func FromEnv() Config {
	return fromViper(newViper())
}

// Load reads the optional config file at path, then lets environment
// variables override it, and validates the result.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path != "" {
		v := newViper()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg = fromViper(v)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	cfg := Default()

	cfg.HorizonURL = strings.TrimRight(v.GetString(HorizonURLKey), "/")
	cfg.NetworkPassphrase = v.GetString(NetworkPassphraseKey)
	cfg.DefaultDestination = v.GetString(DefaultDestinationKey)
	cfg.Memo = v.GetString(MemoKey)
	cfg.ListenAddr = v.GetString(ListenAddrKey)
	cfg.LogLevel = strings.ToLower(v.GetString(LogLevelKey))
	cfg.LogFormat = strings.ToLower(v.GetString(LogFormatKey))

	if d, err := decimal.NewFromString(v.GetString(MinReserveKey)); err == nil && d.IsPositive() {
		cfg.MinReserve = d
	}
	if d, err := decimal.NewFromString(v.GetString(PlanningFeeKey)); err == nil && d.IsPositive() {
		cfg.PlanningFee = d
	}
	if n := v.GetInt64(BaseFeeKey); n > 0 {
		cfg.BaseFee = n
	}
	if d := v.GetDuration(TxTimeoutKey); d > 0 {
		cfg.TxTimeout = d
	}
	if d := v.GetDuration(RequestTimeoutKey); d > 0 {
		cfg.RequestTimeout = d
	}
	if n := v.GetInt(RateLimitKey); n >= 0 {
		cfg.RateLimit = n
	}

	var origins []string
	for _, o := range strings.Split(v.GetString(CORSOriginsKey), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 {
		cfg.CORSOrigins = origins
	}

	return cfg
}

// Validate rejects configurations the network would refuse to work with.
func (c Config) Validate() error {
	u, err := url.Parse(c.HorizonURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q", HorizonURLKey, c.HorizonURL)
	}
	if c.NetworkPassphrase == "" {
		return fmt.Errorf("%s must not be empty", NetworkPassphraseKey)
	}
	if !strkey.IsValidEd25519PublicKey(c.DefaultDestination) {
		return fmt.Errorf("invalid %s %q", DefaultDestinationKey, c.DefaultDestination)
	}
	if len(c.Memo) > maxMemoBytes {
		return fmt.Errorf("%s is %d bytes, the network allows %d", MemoKey, len(c.Memo), maxMemoBytes)
	}
	if c.BaseFee < minBaseFee {
		return fmt.Errorf("%s must be at least %d stroops", BaseFeeKey, minBaseFee)
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("%s must be positive", TxTimeoutKey)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", LogFormatKey, c.LogFormat)
	}
	return nil
}
