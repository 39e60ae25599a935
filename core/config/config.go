package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/saveblush/reraw-info/core/utils/logger"
)

var (
	DefaultFilePath = "./configs"
	fileExtension   = "yml"
	fileNameConfig  = "config"
)

var (
	mu        sync.RWMutex
	current   = &Configs{}
	listeners []func(cf *Configs)
)

// Environment environment
type Environment string

const (
	Develop    Environment = "develop"
	Production Environment = "prod"
)

// Production check is production
func (e Environment) Production() bool {
	return e == Production
}

// VerifiedUsersMode NIP-05 verification mode
type VerifiedUsersMode string

const (
	VerifiedUsersEnabled  VerifiedUsersMode = "enabled"
	VerifiedUsersPassive  VerifiedUsersMode = "passive"
	VerifiedUsersDisabled VerifiedUsersMode = "disabled"
)

// IsEnabled only enabled mode restricts writes, passive just checks
func (m VerifiedUsersMode) IsEnabled() bool {
	return m == VerifiedUsersEnabled
}

type Info struct {
	RelayURL    string `mapstructure:"RELAY_URL"`
	Name        string `mapstructure:"NAME"`
	Description string `mapstructure:"DESCRIPTION"`
	Pubkey      string `mapstructure:"PUBKEY"`
	Contact     string `mapstructure:"CONTACT"`
	RelayIcon   string `mapstructure:"RELAY_ICON"`
}

type Authorization struct {
	Nip42Auth bool `mapstructure:"NIP42_AUTH"`
	// nil means no allow-list, an empty list allows nobody
	PubkeyWhitelist []string `mapstructure:"PUBKEY_WHITELIST"`
}

type PayToRelay struct {
	Enabled       bool   `mapstructure:"ENABLED"`
	AdmissionCost uint64 `mapstructure:"ADMISSION_COST"` // sats
	CostPerEvent  uint64 `mapstructure:"COST_PER_EVENT"` // sats
}

type PayToRelayByCashu struct {
	Enabled      bool     `mapstructure:"ENABLED"`
	CostPerEvent uint64   `mapstructure:"COST_PER_EVENT"` // in Unit
	Unit         string   `mapstructure:"UNIT"`
	Mints        []string `mapstructure:"MINTS"`
	Kinds        []uint64 `mapstructure:"KINDS"`
}

type VerifiedUsers struct {
	Mode VerifiedUsersMode `mapstructure:"MODE"`
}

// IsEnabled is enabled
func (v VerifiedUsers) IsEnabled() bool {
	return v.Mode.IsEnabled()
}

type Grpc struct {
	EventAdmissionServer string `mapstructure:"EVENT_ADMISSION_SERVER"`
	RestrictsWrite       bool   `mapstructure:"RESTRICTS_WRITE"`
}

type App struct {
	Port        int         `mapstructure:"PORT"`
	Environment Environment `mapstructure:"ENVIRONMENT"`
	LogLevel    string      `mapstructure:"LOG_LEVEL"` // empty: debug outside production
	UpstreamURL string      `mapstructure:"UPSTREAM_URL"`
	RateLimit   float64     `mapstructure:"RATE_LIMIT"` // requests per second per ip, 0 disables
	RateBurst   int         `mapstructure:"RATE_BURST"`
	// take the client ip from X-Forwarded-For, only behind a proxy that sets it
	TrustProxy  bool        `mapstructure:"TRUST_PROXY"`
}

// Configs settings of the relay, treat a loaded value as read-only
type Configs struct {
	Info              Info              `mapstructure:"INFO"`
	Authorization     Authorization     `mapstructure:"AUTHORIZATION"`
	PayToRelay        PayToRelay        `mapstructure:"PAY_TO_RELAY"`
	PayToRelayByCashu PayToRelayByCashu `mapstructure:"PAY_TO_RELAY_BY_CASHU"`
	VerifiedUsers     VerifiedUsers     `mapstructure:"VERIFIED_USERS"`
	Grpc              Grpc              `mapstructure:"GRPC"`
	App               App               `mapstructure:"APP"`
}

// Get active configuration
func Get() *Configs {
	mu.RLock()
	defer mu.RUnlock()

	return current
}

// OnReload register fn, called with the new configuration after a valid reload
func OnReload(fn func(cf *Configs)) {
	mu.Lock()
	defer mu.Unlock()

	listeners = append(listeners, fn)
}

func set(cf *Configs) []func(cf *Configs) {
	mu.Lock()
	defer mu.Unlock()

	current = cf
	fns := make([]func(cf *Configs), len(listeners))
	copy(fns, listeners)

	return fns
}

// defaults every key has, so an env var overrides it even when the file leaves it out
var defaults = map[string]any{
	"APP.PORT":                             8080,
	"APP.ENVIRONMENT":                      string(Develop),
	"APP.LOG_LEVEL":                        "",
	"APP.UPSTREAM_URL":                     "",
	"APP.RATE_LIMIT":                       0,
	"APP.RATE_BURST":                       10,
	"APP.TRUST_PROXY":                      false,
	"INFO.RELAY_URL":                       "",
	"INFO.NAME":                            "",
	"INFO.DESCRIPTION":                     "",
	"INFO.PUBKEY":                          "",
	"INFO.CONTACT":                         "",
	"INFO.RELAY_ICON":                      "",
	"AUTHORIZATION.NIP42_AUTH":             false,
	"PAY_TO_RELAY.ENABLED":                 false,
	"PAY_TO_RELAY.ADMISSION_COST":          0,
	"PAY_TO_RELAY.COST_PER_EVENT":          0,
	"PAY_TO_RELAY_BY_CASHU.ENABLED":        false,
	"PAY_TO_RELAY_BY_CASHU.COST_PER_EVENT": 0,
	"PAY_TO_RELAY_BY_CASHU.UNIT":           "",
	"VERIFIED_USERS.MODE":                  string(VerifiedUsersDisabled),
	"GRPC.EVENT_ADMISSION_SERVER":          "",
	"GRPC.RESTRICTS_WRITE":                 false,
}

// envOnlyKeys lists, nil when neither the file nor the env sets them.
// The env value is comma separated.
var envOnlyKeys = []string{
	"AUTHORIZATION.PUBKEY_WHITELIST",
	"PAY_TO_RELAY_BY_CASHU.MINTS",
	"PAY_TO_RELAY_BY_CASHU.KINDS",
}

func newViper(path string) *viper.Viper {
	if path == "" {
		path = DefaultFilePath
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(fileNameConfig)
	v.SetConfigType(fileExtension)
	v.AutomaticEnv()

	// แปลง . dot เป็น _ underscore
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	// a list default would make a missing list look configured
	for _, k := range envOnlyKeys {
		_ = v.BindEnv(k)
	}

	return v
}

// costKeys decoded as unsigned, a negative value would wrap around
var costKeys = []string{
	"PAY_TO_RELAY.ADMISSION_COST",
	"PAY_TO_RELAY.COST_PER_EVENT",
	"PAY_TO_RELAY_BY_CASHU.COST_PER_EVENT",
}

func decode(v *viper.Viper) (*Configs, error) {
	for _, k := range costKeys {
		if v.GetInt64(k) < 0 {
			return nil, fmt.Errorf("%s: %w", strings.ToLower(k), ErrNegativeCost)
		}
	}

	cf := &Configs{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("binding config: %w", err)
	}

	if err := cf.Validate(); err != nil {
		return nil, err
	}

	return cf, nil
}

// Load read and validate the config file in path without watching it
func Load(path string) (*Configs, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return decode(v)
}

// InitConfig init config and watch the file for changes.
// A changed file that fails to bind or validate is ignored, the active config stays.
func InitConfig(path string) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Log.Errorf("read config file error: %s", err)
		return err
	}

	cf, err := decode(v)
	if err != nil {
		logger.Log.Errorf("binding config error: %s", err)
		return err
	}
	set(cf)

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Log.Infof("config file changed: %s", e.Name)
		cf, err := decode(v)
		if err != nil {
			logger.Log.Errorf("reload config error, keeping previous: %s", err)
			return
		}

		for _, fn := range set(cf) {
			fn(cf)
		}
	})
	v.WatchConfig()

	return nil
}
