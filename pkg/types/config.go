package types

import "time"

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"30"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"300"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Spreadsheet template
	TemplatePath       string `envconfig:"TEMPLATE_PATH" default:"FORMULARIO FATURAS FI NOVO v1.xlsx"`
	TemplateSheet      string `envconfig:"TEMPLATE_SHEET" default:"FORMULARIO_FI"`
	RowCapacityExpense int    `envconfig:"ROW_CAPACITY_EXPENSE" default:"20"`
	RowCapacityMileage int    `envconfig:"ROW_CAPACITY_MILEAGE" default:"8"`

	// SMTP relay. No credentials, the relay only accepts connections from the private network.
	RelayHost string `envconfig:"RELAY_HOST" default:"10.254.255.25"`
	RelayPort int    `envconfig:"RELAY_PORT" default:"25"`
	MailFrom  string `envconfig:"MAIL_FROM" default:"naoresponder@viaappia.com.br"`

	// Document conversion
	ConverterBin        string `envconfig:"CONVERTER_BIN" default:"libreoffice"`
	ConverterFormat     string `envconfig:"CONVERTER_FORMAT" default:"pdf"`
	ConverterTimeoutSec uint   `envconfig:"CONVERTER_TIMEOUT_SEC" default:"0"` // 0 disables the timeout

	// Working storage
	WorkDir          string `envconfig:"WORK_DIR" default:"./work"`
	ArtifactTTLMin   uint   `envconfig:"ARTIFACT_TTL_MIN" default:"1440"`
	SweepIntervalMin uint   `envconfig:"SWEEP_INTERVAL_MIN" default:"15"`
	MaxUploadMB      int64  `envconfig:"MAX_UPLOAD_MB" default:"200"`

	// Download token keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values. Random per process when empty.
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}

func (c *Config) ArtifactTTL() time.Duration {
	return time.Duration(c.ArtifactTTLMin) * time.Minute
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMin) * time.Minute
}

func (c *Config) ConverterTimeout() time.Duration {
	return time.Duration(c.ConverterTimeoutSec) * time.Second
}
