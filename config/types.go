package config

import "time"

type Config struct {
	Debug   bool    `mapstructure:"debug"`
	Server  Server  `mapstructure:"server"`
	Upload  Upload  `mapstructure:"upload"`
	Session Session `mapstructure:"session"`
	Media   Media   `mapstructure:"media"`
	Mirror  Mirror  `mapstructure:"mirror"`
	Records Records `mapstructure:"records"`
}

type Server struct {
	Address string       `mapstructure:"address" validate:"required,hostname|ip"`
	Port    int          `mapstructure:"port" validate:"min=0,max=65535"`
	Landing string       `mapstructure:"landing" validate:"required,oneof=json html"`
	Limits  ServerLimits `mapstructure:"limits"`
	Cors    ServerCors   `mapstructure:"cors"`
}

type ServerLimits struct {
	MaxPayloadSize  uint `mapstructure:"max_payload_size" validate:"required"`
	MaxFileSize     uint `mapstructure:"max_file_size" validate:"required"`
	MaxMultipartMem uint `mapstructure:"max_multipart_mem" validate:"required"`
}

type ServerCors struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Upload struct {
	// RequireFile rejects requests carrying no file part at all with a 400.
	RequireFile bool          `mapstructure:"require_file"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=1,max=3"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"required"`
}

type Session struct {
	Mode       string        `mapstructure:"mode" validate:"required,oneof=none request session"`
	Store      string        `mapstructure:"store" validate:"omitempty,oneof=memory sql"`
	CookieName string        `mapstructure:"cookie_name" validate:"omitempty,identifier"`
	MaxAge     time.Duration `mapstructure:"max_age" validate:"min=0"`
	Secure     bool          `mapstructure:"secure"`
	SQL        *SQLBackend   `mapstructure:"sql" validate:"required_if=Store sql"`
}

type SQLBackend struct {
	Driver      string  `mapstructure:"driver" validate:"required,oneof=postgres mysql"`
	DSN         string  `mapstructure:"dsn" validate:"required"`
	TablePrefix *string `mapstructure:"table_prefix" validate:"omitempty,identifier"`
}

type Media struct {
	Strategy   string                   `mapstructure:"strategy" validate:"required,oneof=cloudinary s3 filesystem noop"`
	Folder     string                   `mapstructure:"folder"`
	Cloudinary *CloudinaryMediaStrategy `mapstructure:"cloudinary" validate:"required_if=Strategy cloudinary"`
	S3         *S3MediaStrategy         `mapstructure:"s3" validate:"required_if=Strategy s3"`
	Filesystem *FilesystemMediaStrategy `mapstructure:"filesystem" validate:"required_if=Strategy filesystem"`
}

type CloudinaryMediaStrategy struct {
	CloudName string `mapstructure:"cloud_name" validate:"required"`
	ApiKey    string `mapstructure:"api_key" validate:"required"`
	ApiSecret string `mapstructure:"api_secret" validate:"required"`
	// UploadPrefix overrides the API host, mostly useful against a local fake.
	UploadPrefix string `mapstructure:"upload_prefix" validate:"omitempty,url"`
}

type S3MediaStrategy struct {
	AccessKeyId    string `mapstructure:"access_key_id" validate:"required"`
	SecretKeyId    string `mapstructure:"secret_key_id" validate:"required"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket" validate:"required"`
	Endpoint       string `mapstructure:"endpoint"`
	PublicUrl      string `mapstructure:"public_url" validate:"omitempty,url"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	DisableSSL     bool   `mapstructure:"disable_ssl"`
}

type FilesystemMediaStrategy struct {
	Path        string `mapstructure:"path" validate:"required,abspath"`
	PublicUrl   string `mapstructure:"public_url" validate:"required,url"`
	PathPattern string `mapstructure:"path_pattern" validate:"omitempty,pathpattern"`
}

type Mirror struct {
	Strategy    string                  `mapstructure:"strategy" validate:"required,oneof=none supabase s3"`
	PathPattern string                  `mapstructure:"path_pattern" validate:"omitempty,pathpattern"`
	Supabase    *SupabaseMirrorStrategy `mapstructure:"supabase" validate:"required_if=Strategy supabase"`
	S3          *S3MirrorStrategy       `mapstructure:"s3" validate:"required_if=Strategy s3"`
}

type SupabaseMirrorStrategy struct {
	Url             string `mapstructure:"url" validate:"required,url"`
	Bucket          string `mapstructure:"bucket" validate:"required"`
	AccessKeyId     string `mapstructure:"access_key_id" validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	Region          string `mapstructure:"region"`
}

type S3MirrorStrategy struct {
	Endpoint        string `mapstructure:"endpoint" validate:"required,url"`
	PublicUrl       string `mapstructure:"public_url" validate:"required,url"`
	Bucket          string `mapstructure:"bucket" validate:"required"`
	AccessKeyId     string `mapstructure:"access_key_id" validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	Region          string `mapstructure:"region"`
}

type Records struct {
	Strategy string                  `mapstructure:"strategy" validate:"required,oneof=supabase sql d1 git noop"`
	Supabase *SupabaseRecordStrategy `mapstructure:"supabase" validate:"required_if=Strategy supabase"`
	SQL      *SQLBackend             `mapstructure:"sql" validate:"required_if=Strategy sql"`
	D1       *D1RecordStrategy       `mapstructure:"d1" validate:"required_if=Strategy d1"`
	Git      *GitRecordStrategy      `mapstructure:"git" validate:"required_if=Strategy git"`
}

type SupabaseRecordStrategy struct {
	Url     string `mapstructure:"url" validate:"required,url"`
	AnonKey string `mapstructure:"anon_key" validate:"required"`
	Schema  string `mapstructure:"schema"`
	Table   string `mapstructure:"table" validate:"required,identifier"`
}

type D1RecordStrategy struct {
	AccountID   string  `mapstructure:"account_id" validate:"required"`
	DatabaseID  string  `mapstructure:"database_id" validate:"required"`
	APIToken    string  `mapstructure:"api_token" validate:"required"`
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	TablePrefix *string `mapstructure:"table_prefix" validate:"omitempty,identifier"`
}

type GitRecordStrategy struct {
	Repository string                `mapstructure:"repository" validate:"required"`
	Branch     string                `mapstructure:"branch"`
	Path       string                `mapstructure:"path" validate:"required,localpath"`
	Auth       GitRecordStrategyAuth `mapstructure:"auth"`
}

type GitRecordStrategyAuth struct {
	Method string                `mapstructure:"method" validate:"required,oneof=none plain ssh"`
	Plain  *UsernamePasswordAuth `mapstructure:"plain" validate:"required_if=Method plain"`
	Ssh    *SshKeyAuth           `mapstructure:"ssh" validate:"required_if=Method ssh"`
}

type UsernamePasswordAuth struct {
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

type SshKeyAuth struct {
	Username           string `mapstructure:"username" validate:"required"`
	PrivateKeyFilePath string `mapstructure:"private_key_file_path" validate:"required,file"`
	Passphrase         string `mapstructure:"passphrase"`
}
