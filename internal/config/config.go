package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		BaseURL            string   `yaml:"base_url"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

		// Autocert habilita TLS automática vía Let's Encrypt.
		Autocert struct {
			Enabled  bool     `yaml:"enabled"`
			Hosts    []string `yaml:"hosts"`
			CacheDir string   `yaml:"cache_dir"`
		} `yaml:"autocert"`
	} `yaml:"server"`

	Auth struct {
		// Sufijo institucional obligatorio para todo email publicado.
		DomainSuffix string `yaml:"domain_suffix"`

		// Ventana de espera por un evento adicional del stream cuando
		// la resolución de email falla por las vías directas.
		ResolveWait string `yaml:"resolve_wait"` // default: "3s"

		// Timeout del lookup HTTP de userinfo de Google.
		UserinfoTimeout string `yaml:"userinfo_timeout"` // default: "5s"

		Provider struct {
			// Base URLs del Identity Platform. Configurables para testing.
			APIKey       string `yaml:"api_key"`
			BaseURL      string `yaml:"base_url"`       // identitytoolkit
			TokenBaseURL string `yaml:"token_base_url"` // securetoken
		} `yaml:"provider"`

		Session struct {
			CookieName string `yaml:"cookie_name"`
			Domain     string `yaml:"domain"`
			SameSite   string `yaml:"samesite"`
			Secure     bool   `yaml:"secure"`
			TTL        string `yaml:"ttl"`
		} `yaml:"session"`
	} `yaml:"auth"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Push struct {
		Enabled  bool   `yaml:"enabled"`
		VapidKey string `yaml:"vapid_key"`
		BaseURL  string `yaml:"base_url"` // FCM registration endpoint
		APIKey   string `yaml:"api_key"`
	} `yaml:"push"`

	Theme struct {
		CookieName string `yaml:"cookie_name"` // default: "theme"
		Default    string `yaml:"default"`     // light | dark
	} `yaml:"theme"`

	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		From string `yaml:"from"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
		TLS  string `yaml:"tls"` // auto | starttls | ssl | none

		// Buzón que recibe los mensajes del formulario de contacto.
		ContactTo string `yaml:"contact_to"`
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Auth.DomainSuffix == "" {
		c.Auth.DomainSuffix = "@seu.edu.bd"
	}
	if c.Auth.ResolveWait == "" {
		c.Auth.ResolveWait = "3s"
	}
	if c.Auth.UserinfoTimeout == "" {
		c.Auth.UserinfoTimeout = "5s"
	}
	if c.Auth.Provider.BaseURL == "" {
		c.Auth.Provider.BaseURL = "https://identitytoolkit.googleapis.com/v1"
	}
	if c.Auth.Provider.TokenBaseURL == "" {
		c.Auth.Provider.TokenBaseURL = "https://securetoken.googleapis.com/v1"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "sid"
	}
	if c.Auth.Session.SameSite == "" {
		c.Auth.Session.SameSite = "Lax"
	}
	if c.Auth.Session.TTL == "" {
		c.Auth.Session.TTL = "12h"
	}
	if c.Theme.CookieName == "" {
		c.Theme.CookieName = "theme"
	}
	if c.Theme.Default == "" {
		c.Theme.Default = "light"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.Server.Autocert.CacheDir == "" {
		c.Server.Autocert.CacheDir = "./data/autocert"
	}

	// validate string durations
	for _, d := range []string{c.Auth.ResolveWait, c.Auth.UserinfoTimeout, c.Auth.Session.TTL, c.Cache.Memory.DefaultTTL} {
		if d != "" {
			if _, err := time.ParseDuration(d); err != nil {
				return nil, err
			}
		}
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// ResolveWaitDuration retorna la ventana de espera parseada.
func (c *Config) ResolveWaitDuration() time.Duration {
	d, err := time.ParseDuration(c.Auth.ResolveWait)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// UserinfoTimeoutDuration retorna el timeout de userinfo parseado.
func (c *Config) UserinfoTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Auth.UserinfoTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Auth.DomainSuffix, "@") {
		return fmt.Errorf("config: auth.domain_suffix debe empezar con '@', obtuvo %q", c.Auth.DomainSuffix)
	}
	switch c.Theme.Default {
	case "light", "dark":
	default:
		return fmt.Errorf("config: theme.default debe ser light|dark, obtuvo %q", c.Theme.Default)
	}
	if c.Server.Autocert.Enabled && len(c.Server.Autocert.Hosts) == 0 {
		return fmt.Errorf("config: server.autocert.enabled requiere al menos un host")
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_DOMAIN_SUFFIX"); ok {
		c.Auth.DomainSuffix = v
	}
	if v, ok := getEnvStr("AUTH_PROVIDER_API_KEY"); ok {
		c.Auth.Provider.APIKey = v
	}
	if v, ok := getEnvStr("AUTH_PROVIDER_BASE_URL"); ok {
		c.Auth.Provider.BaseURL = v
	}
	if v, ok := getEnvStr("AUTH_PROVIDER_TOKEN_BASE_URL"); ok {
		c.Auth.Provider.TokenBaseURL = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// PUSH
	if v, ok := getEnvBool("PUSH_ENABLED"); ok {
		c.Push.Enabled = v
	}
	if v, ok := getEnvStr("PUSH_VAPID_KEY"); ok {
		c.Push.VapidKey = v
	}
	if v, ok := getEnvStr("PUSH_API_KEY"); ok {
		c.Push.APIKey = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}
