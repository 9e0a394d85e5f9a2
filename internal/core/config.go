package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// EnvPrefix 环境变量前缀,如 SSAUDIR_STAFF_LAST_PAGE=10
const EnvPrefix = "SSAUDIR"

// Config 应用程序配置
type Config struct {
	Groups   GroupsConfig   `mapstructure:"groups"`
	Staff    StaffConfig    `mapstructure:"staff"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// GroupsConfig 组爬取配置
type GroupsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	FacultyPathPrefix string        `mapstructure:"faculty_path_prefix"`
	FirstCourse       int           `mapstructure:"first_course"`
	LastCourse        int           `mapstructure:"last_course"`
	CourseDelay       time.Duration `mapstructure:"course_delay"`
	InstituteDelay    time.Duration `mapstructure:"institute_delay"`
	Output            string        `mapstructure:"output"`
}

// StaffConfig 教职工爬取配置
type StaffConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	FirstPage int           `mapstructure:"first_page"`
	LastPage  int           `mapstructure:"last_page"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	Output    string        `mapstructure:"output"`
}

// ScheduleConfig 课表抓取配置
type ScheduleConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	AllowedHost    string `mapstructure:"allowed_host"`
	DataDir        string `mapstructure:"data_dir"`
	DropEmptySlots int    `mapstructure:"drop_empty_slots"`
}

// FetchConfig 抓取配置
type FetchConfig struct {
	Mode            string            `mapstructure:"mode"` // static | dynamic
	Timeout         time.Duration     `mapstructure:"timeout"`
	Headless        bool              `mapstructure:"headless"`
	MinFreeMemoryMB uint64            `mapstructure:"min_free_memory_mb"`
	Headers         map[string]string `mapstructure:"headers"`
}

// ServerConfig API服务配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	DataDir        string        `mapstructure:"data_dir"`
	PublicDir      string        `mapstructure:"public_dir"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	ReportDir string `mapstructure:"report_dir"` // 为空时不写运行报告
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 配置文件 > 默认值;命令行参数由调用方在之后覆盖
func LoadConfig(configPath string) (*Config, error) {
	// .env不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Warnf("加载.env失败: %v", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".ssaudir"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置失败: %w", err)}
	}

	if err := config.Validate(); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: err}
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("groups.base_url", "https://ssau.ru/rasp")
	v.SetDefault("groups.faculty_path_prefix", "/rasp/faculty/")
	v.SetDefault("groups.first_course", 1)
	v.SetDefault("groups.last_course", 6)
	v.SetDefault("groups.course_delay", "500ms")
	v.SetDefault("groups.institute_delay", "1s")
	v.SetDefault("groups.output", "groups.json")

	v.SetDefault("staff.base_url", "https://ssau.ru/staff")
	v.SetDefault("staff.first_page", 1)
	v.SetDefault("staff.last_page", 129)
	v.SetDefault("staff.page_delay", "1s")
	v.SetDefault("staff.output", "staff.json")

	v.SetDefault("schedule.base_url", "https://ssau.ru/rasp")
	v.SetDefault("schedule.allowed_host", "ssau.ru")
	v.SetDefault("schedule.data_dir", "data")
	v.SetDefault("schedule.drop_empty_slots", 7)

	v.SetDefault("fetch.mode", "static")
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.min_free_memory_mb", 512)
	v.SetDefault("fetch.headers", map[string]string{})

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.data_dir", "data")
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.refresh_timeout", "2m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.report_dir", "")
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"groups.base_url":   c.Groups.BaseURL,
		"staff.base_url":    c.Staff.BaseURL,
		"schedule.base_url": c.Schedule.BaseURL,
	} {
		if err := models.ValidateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Groups.FirstCourse < 1 || c.Groups.LastCourse < c.Groups.FirstCourse {
		return fmt.Errorf("课程范围无效: %d..%d", c.Groups.FirstCourse, c.Groups.LastCourse)
	}
	if c.Staff.FirstPage < 1 || c.Staff.LastPage < c.Staff.FirstPage {
		return fmt.Errorf("页码范围无效: %d..%d", c.Staff.FirstPage, c.Staff.LastPage)
	}

	switch c.Fetch.Mode {
	case FetchModeStatic, FetchModeDynamic:
	default:
		return fmt.Errorf("fetch.mode 必须是 %s 或 %s, 实际为 %q", FetchModeStatic, FetchModeDynamic, c.Fetch.Mode)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 无效: %d", c.Server.Port)
	}
	return nil
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
