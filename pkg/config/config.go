package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host       string `json:"host"`       // The domain name of the server.
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.
	LogLevel   string `json:"logLevel"`   // Overrides the level derived from gin mode.

	Postgres struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		DBName   string `json:"dbname"`
		User     string `json:"user"`
		Password string `json:"password"`
		SSLMode  string `json:"sslmode"`
		TimeZone string `json:"TimeZone"`
		// Read replicas, each one a full DSN. Reads are spread over them when set.
		Replicas []string `json:"replicas"`
	} `json:"postgres"`

	Auth struct {
		AccessTokenSecret      string `json:"accessTokenSecret"`
		RefreshTokenSecret     string `json:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `json:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `json:"refreshTokenExpiryHour"`
		// The account with this username may toggle staff flags even without superuser.
		AdminUsername string `json:"adminUsername"`
		LDAP          struct {
			Enable   bool   `json:"enable"`
			UserName string `json:"userName"`
			Password string `json:"password"`
			Address  string `json:"address"`
			SearchDN string `json:"searchDN"`
		} `json:"ldap"`
	} `json:"auth"`

	SMTP struct {
		Enable   bool   `json:"enable"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		From     string `json:"from"`
		FromName string `json:"fromName"`
	} `json:"smtp"`

	Webhook struct {
		Enable  bool   `json:"enable"`
		Address string `json:"address"`
	} `json:"webhook"`

	Notify struct {
		Recipients     []string `json:"recipients"`
		TerminalStatus string   `json:"terminalStatus"`
	} `json:"notify"`

	Cron struct {
		PurgeTokensSpec string `json:"purgeTokensSpec"`
	} `json:"cron"`

	// Superuser created on first start when no user with this name exists.
	Bootstrap struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"bootstrap"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads BUILDTRACKER_CONFIG_PATH when set, ./etc/debug-config.yaml in debug
// mode and the ConfigMap mounted at /etc/config/config.yaml otherwise.
func initConfig() *Config {
	var configPath string
	switch {
	case os.Getenv("BUILDTRACKER_CONFIG_PATH") != "":
		configPath = os.Getenv("BUILDTRACKER_CONFIG_PATH")
	case IsDebugMode():
		configPath = "./etc/debug-config.yaml"
	default:
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	config, err := Load(configPath)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	return config
}

// Load reads the YAML file at filePath and fills in defaults for unset fields.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	config.SetDefaults()
	return config, nil
}

const (
	defaultServerAddr       = ":8000"
	defaultAccessTokenHour  = 1
	defaultRefreshTokenHour = 168
	defaultAdminUsername    = "admin"
	defaultSMTPPort         = 587
	defaultTerminalStatus   = "Handedover to PLO"
	defaultPurgeTokensSpec  = "0 * * * *"
)

func (c *Config) SetDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	if c.Auth.AccessTokenExpiryHour <= 0 {
		c.Auth.AccessTokenExpiryHour = defaultAccessTokenHour
	}
	if c.Auth.RefreshTokenExpiryHour <= 0 {
		c.Auth.RefreshTokenExpiryHour = defaultRefreshTokenHour
	}
	if c.Auth.RefreshTokenSecret == "" {
		c.Auth.RefreshTokenSecret = c.Auth.AccessTokenSecret
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = defaultAdminUsername
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = defaultSMTPPort
	}
	if c.Notify.TerminalStatus == "" {
		c.Notify.TerminalStatus = defaultTerminalStatus
	}
	if c.Cron.PurgeTokensSpec == "" {
		c.Cron.PurgeTokensSpec = defaultPurgeTokensSpec
	}
}
