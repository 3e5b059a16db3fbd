package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Output  OutputConfig
	Convert ConvertConfig
	Team    TeamConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	output := loadOutputConfig()

	convert, err := loadConvertConfig()
	if err != nil {
		return nil, err
	}

	team, err := loadTeamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Output: output, Convert: convert, Team: team}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
	}, nil
}

// OutputConfig 描述教案产物的落盘位置。
type OutputConfig struct {
	MarkdownDir string
	PDFDir      string
	FontPath    string
	FontURL     string
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		MarkdownDir: getEnvOrDefault("OUTPUT_MARKDOWN_DIR", "public/md"),
		PDFDir:      getEnvOrDefault("OUTPUT_PDF_DIR", "public/pdfs"),
		FontPath:    getEnvOrDefault("OUTPUT_FONT_PATH", "public/fonts/NotoSansSC-Regular.ttf"),
		FontURL:     getEnvOrDefault("OUTPUT_FONT_URL", "https://github.com/jsntn/webfonts/raw/master/NotoSansSC-Regular.ttf"),
	}
}

// ConvertConfig 描述文件转换服务配置。Endpoint 为空时仅支持本地可解析的格式。
type ConvertConfig struct {
	Endpoint       string
	MaxFileMB      int
	TimeoutSeconds int
}

func loadConvertConfig() (ConvertConfig, error) {
	maxFile := 50
	if override, err := parseOptionalIntEnv("CONVERT_MAX_FILE_MB"); err != nil {
		return ConvertConfig{}, err
	} else if override != nil && *override > 0 {
		maxFile = *override
	}

	timeout := 120
	if override, err := parseOptionalIntEnv("CONVERT_TIMEOUT_SECONDS"); err != nil {
		return ConvertConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return ConvertConfig{
		Endpoint:       strings.TrimSpace(os.Getenv("CONVERT_ENDPOINT")),
		MaxFileMB:      maxFile,
		TimeoutSeconds: timeout,
	}, nil
}

// TeamConfig 描述多智能体团队的运行参数。
type TeamConfig struct {
	MaxMessages int
}

func loadTeamConfig() (TeamConfig, error) {
	maxMessages := 50
	if override, err := parseOptionalIntEnv("TEAM_MAX_MESSAGES"); err != nil {
		return TeamConfig{}, err
	} else if override != nil && *override > 0 {
		maxMessages = *override
	}

	return TeamConfig{MaxMessages: maxMessages}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
