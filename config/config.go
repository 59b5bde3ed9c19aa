package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// legacyEnv maps the secret variables older deployments export to their config keys.
var legacyEnv = map[string][]string{
	"CLOUDINARY_CLOUD_NAME": {"media.cloudinary.cloud_name"},
	"CLOUDINARY_API_KEY":    {"media.cloudinary.api_key"},
	"CLOUDINARY_API_SECRET": {"media.cloudinary.api_secret"},
	"SUPABASE_URL":          {"records.supabase.url", "mirror.supabase.url"},
	"SUPABASE_ANON_KEY":     {"records.supabase.anon_key"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.landing", "json")
	v.SetDefault("server.limits.max_payload_size", 64<<20)
	v.SetDefault("server.limits.max_file_size", 50<<20)
	v.SetDefault("server.limits.max_multipart_mem", 32<<20)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("upload.require_file", false)
	v.SetDefault("upload.concurrency", 1)
	v.SetDefault("upload.timeout", 60*time.Second)
	v.SetDefault("session.mode", "session")
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.cookie_name", "capture_session")
	v.SetDefault("session.max_age", 30*24*time.Hour)
	v.SetDefault("media.strategy", "cloudinary")
	v.SetDefault("media.folder", "SUS CAPTURE")
	v.SetDefault("mirror.strategy", "none")
	v.SetDefault("mirror.path_pattern", "{user}/{name}{ext}")
	v.SetDefault("records.strategy", "supabase")
	v.SetDefault("records.supabase.table", "uploads")
	v.SetDefault("records.supabase.schema", "public")

	// Keys that only ever come from the environment must be known to viper
	// before Unmarshal, otherwise AutomaticEnv never consults them.
	for env, keys := range legacyEnv {
		for _, key := range keys {
			_ = v.BindEnv(key, "CAPTURE_"+envKeyReplacer.Replace(strings.ToUpper(key)), env)
		}
	}
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func (c *Config) Validate() error {
	if err := NewValidator().Struct(c); err != nil {
		return err
	}

	return nil
}

// prune drops strategy blocks that are not selected, so defaults or stray
// environment variables for an unused backend do not fail validation.
func (c *Config) prune() {
	if c.Media.Strategy != "cloudinary" {
		c.Media.Cloudinary = nil
	}
	if c.Media.Strategy != "s3" {
		c.Media.S3 = nil
	}
	if c.Media.Strategy != "filesystem" {
		c.Media.Filesystem = nil
	}

	if c.Mirror.Strategy != "supabase" {
		c.Mirror.Supabase = nil
	}
	if c.Mirror.Strategy != "s3" {
		c.Mirror.S3 = nil
	}

	if c.Records.Strategy != "supabase" {
		c.Records.Supabase = nil
	}
	if c.Records.Strategy != "sql" {
		c.Records.SQL = nil
	}
	if c.Records.Strategy != "d1" {
		c.Records.D1 = nil
	}
	if c.Records.Strategy != "git" {
		c.Records.Git = nil
	}

	if c.Session.Mode != "session" || c.Session.Store != "sql" {
		c.Session.SQL = nil
	}
}

// LoadConfig reads file (when non-empty), overlays the environment and validates
// the result. The environment uses the CAPTURE_ prefix with dots replaced by
// underscores, e.g. CAPTURE_SERVER_PORT.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CAPTURE")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			log.Println("read in fail")
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Println("unmarshal fail")
		return nil, err
	}

	cfg.prune()

	if err := cfg.Validate(); err != nil {
		log.Println("validate fail")
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) BindAddress() string {
	return fmt.Sprintf("%v:%v", c.Server.Address, c.Server.Port)
}
