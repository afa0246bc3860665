package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/chaos-io/cutout/segment"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Output  OutputConfig  `mapstructure:"output"`
	Segment SegmentConfig `mapstructure:"segment"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	// AllowBackdropURL 是否允许请求通过 backdrop_url 让服务端拉取公网图片
	AllowBackdropURL bool `mapstructure:"allow_backdrop_url"`
	// BackdropURLTimeout 拉取远程背景图的超时
	BackdropURLTimeout time.Duration `mapstructure:"backdrop_url_timeout"`
}

type OutputConfig struct {
	Dir         string        `mapstructure:"dir"`
	Format      string        `mapstructure:"format"`
	JPEGQuality int           `mapstructure:"jpeg_quality"`
	Retention   time.Duration `mapstructure:"retention"`
	// CleanupSpec cron 表达式，清理过期的上传与输出文件
	CleanupSpec string `mapstructure:"cleanup_spec"`
}

type SegmentConfig struct {
	Sensitivity  float64 `mapstructure:"sensitivity"`
	MaxDimension int     `mapstructure:"max_dimension"`
	SampleStride int     `mapstructure:"sample_stride"`
	SoftenRadius int     `mapstructure:"soften_radius"`
	// MaxSoftenRadius 请求可以指定的柔化半径上限
	MaxSoftenRadius int `mapstructure:"max_soften_radius"`

	MaxConcurrent int           `mapstructure:"max_concurrent"`
	QueueTimeout  time.Duration `mapstructure:"queue_timeout"`
}

// Engine 转为 segment.Config（alpha 模式）
func (c SegmentConfig) Engine() segment.Config {
	return segment.Config{
		Sensitivity:  c.Sensitivity,
		MaxDimension: c.MaxDimension,
		SampleStride: c.SampleStride,
		SoftenRadius: c.SoftenRadius,
		Mode:         segment.AlphaMode(),
	}
}

// Load 从 YAML 文件加载配置，configPath 为空时只读取默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CUTOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 加载 configPath，失败时返回默认配置
func New(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return Default()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.upload_dir", d.Upload.UploadDir)
	v.SetDefault("upload.allowed_types", d.Upload.AllowedTypes)
	v.SetDefault("upload.allow_backdrop_url", d.Upload.AllowBackdropURL)
	v.SetDefault("upload.backdrop_url_timeout", d.Upload.BackdropURLTimeout)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.jpeg_quality", d.Output.JPEGQuality)
	v.SetDefault("output.retention", d.Output.Retention)
	v.SetDefault("output.cleanup_spec", d.Output.CleanupSpec)

	v.SetDefault("segment.sensitivity", d.Segment.Sensitivity)
	v.SetDefault("segment.max_dimension", d.Segment.MaxDimension)
	v.SetDefault("segment.sample_stride", d.Segment.SampleStride)
	v.SetDefault("segment.soften_radius", d.Segment.SoftenRadius)
	v.SetDefault("segment.max_soften_radius", d.Segment.MaxSoftenRadius)
	v.SetDefault("segment.max_concurrent", d.Segment.MaxConcurrent)
	v.SetDefault("segment.queue_timeout", d.Segment.QueueTimeout)
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:            10 * 1024 * 1024,
			UploadDir:          "./uploads",
			AllowedTypes:       []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/bmp", "image/gif"},
			BackdropURLTimeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Dir:         "./output",
			Format:      "png",
			JPEGQuality: 92,
			Retention:   time.Hour,
			CleanupSpec: "@every 10m",
		},
		Segment: SegmentConfig{
			Sensitivity:     segment.DefaultSensitivity,
			MaxDimension:    segment.DefaultMaxDimension,
			SampleStride:    segment.DefaultSampleStride,
			SoftenRadius:    segment.DefaultSoftenRadius,
			MaxSoftenRadius: 16,
			MaxConcurrent:   3,
			QueueTimeout:    30 * time.Second,
		},
	}
}
