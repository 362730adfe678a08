package config

import "time"

type TDLibConfig struct {
	UseTestDc           bool   `yaml:"use_test_dc"`
	DatabaseDirectory   string `yaml:"database_directory"`
	FilesDirectory      string `yaml:"files_directory"`
	UseFileDatabase     bool   `yaml:"use_file_database"`
	UseChatInfoDatabase bool   `yaml:"use_chat_info_database"`
	UseMessageDatabase  bool   `yaml:"use_message_database"`
	UseSecretChats      bool   `yaml:"use_secret_chats"`
	APIID               int32  `yaml:"api_id"`
	APIHash             string `yaml:"api_hash"`
	SystemLanguageCode  string `yaml:"system_language_code"`
	DeviceModel         string `yaml:"device_model"`
	SystemVersion       string `yaml:"system_version"`
	ApplicationVersion  string `yaml:"application_version"`
	LogLevel            int    `yaml:"log_level"`
	HistoryPageLimit    int32  `yaml:"history_page_limit"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	Production bool   `yaml:"production"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type ForwardConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
}

type ArchiveConfig struct {
	Keywords []string `yaml:"keywords"`
}

type SchedulerConfig struct {
	Hourly HourlyConfig `yaml:"hourly"`
	Daily  DailyConfig  `yaml:"daily"`
}

type HourlyConfig struct {
	Interval     Duration `yaml:"interval"`
	Window       Duration `yaml:"window"`
	ChannelsFile string   `yaml:"channels_file"`
}

type DailyConfig struct {
	At           string   `yaml:"at"`
	UTCOffset    string   `yaml:"utc_offset"`
	Window       Duration `yaml:"window"`
	ChannelsFile string   `yaml:"channels_file"`
	ReportDir    string   `yaml:"report_dir"`
}

const (
	DefaultConfigPath       = "./internal/config/config.yaml"
	DefaultChannelsFile     = "channels.yml"
	DefaultSessionDirectory = "sessions/collector"
	DefaultHTTPAddr         = ":8080"
	DefaultHourlyInterval   = time.Hour
	DefaultHourlyWindow     = time.Hour
	DefaultDailyAt          = "01:00"
	DefaultDailyOffset      = "+03:00"
	DefaultDailyWindow      = 24 * time.Hour
	DefaultHistoryPageLimit = 50
	MaxHistoryPageLimit     = 100

	EnvAPIID   = "TELEGRAM_API_ID"
	EnvAPIHash = "TELEGRAM_API_HASH"
)
