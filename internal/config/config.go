package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Log     LogConfig     `toml:"log"`
	Payroll PayrollConfig `toml:"payroll"`
	Sink    SinkConfig    `toml:"sink"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// PayrollConfig 规范化配置
type PayrollConfig struct {
	ComponentMarker string `toml:"component_marker"`
	DaysMarker      string `toml:"days_marker"`
	Strict          bool   `toml:"strict"`
	// 为空时按识别结果与位置回退
	RosterSheet     string `toml:"roster_sheet"`
	SalarySheet     string `toml:"salary_sheet"`
	AttendanceSheet string `toml:"attendance_sheet"`
	AliasFile       string `toml:"alias_file"`
	HeaderMode      string `toml:"header_mode"`
}

// SinkConfig 输出工作簿配置
type SinkConfig struct {
	TemplatePath     string `toml:"template_path"`
	MasterSheet      string `toml:"master_sheet"`
	SheetPrefix      string `toml:"sheet_prefix"`
	FormulaSourceRow int    `toml:"formula_source_row"`
	FormulaStartCol  string `toml:"formula_start_col"`
	FormulaEndCol    string `toml:"formula_end_col"`
	ReferencePolicy  string `toml:"reference_policy"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    6000,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Payroll: PayrollConfig{
			ComponentMarker: "blue ocea cost",
			DaysMarker:      "Total",
			HeaderMode:      "keyed",
		},
		Sink: SinkConfig{
			MasterSheet:      "master",
			SheetPrefix:      "EmpDetails",
			FormulaSourceRow: 2,
			FormulaStartCol:  "D",
			FormulaEndCol:    "I",
			ReferencePolicy:  "all",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrDot() string {
	dir, err := GetExeDir()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir := exeDirOrDot()
	loadDotEnv(filepath.Join(exeDir, ".env"), ".env")
	return LoadFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFile 加载指定配置文件；文件不存在时使用默认配置。环境变量始终生效
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, os.Getenv); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// loadDotEnv 依次加载存在的 .env 文件，已存在的环境变量不被覆盖
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("PAYSHEET_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAYSHEET_PORT: %w", err)
		}
		config.Server.Port = port
	}
	if v := strings.TrimSpace(getenv("PAYSHEET_DATA_DIR")); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(getenv("PAYSHEET_TEMPLATE_PATH")); v != "" {
		config.Sink.TemplatePath = v
	}
	if v := strings.TrimSpace(getenv("PAYSHEET_STRICT")); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAYSHEET_STRICT: %w", err)
		}
		config.Payroll.Strict = strict
	}
	if v := strings.TrimSpace(getenv("PAYSHEET_LOG_LEVEL")); v != "" {
		config.Log.Level = v
	}
	return nil
}

// Validate 检查取值范围
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Payroll.HeaderMode) {
	case "", "keyed", "positional":
	default:
		return fmt.Errorf("payroll.header_mode must be keyed or positional, got %q", c.Payroll.HeaderMode)
	}
	switch strings.ToLower(c.Sink.ReferencePolicy) {
	case "", "all", "relative":
	default:
		return fmt.Errorf("sink.reference_policy must be all or relative, got %q", c.Sink.ReferencePolicy)
	}
	if c.Sink.FormulaSourceRow < 0 {
		return fmt.Errorf("sink.formula_source_row must be positive, got %d", c.Sink.FormulaSourceRow)
	}
	return nil
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	configPath := filepath.Join(exeDirOrDot(), "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// ResolveDataDir 相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(exeDirOrDot(), config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及 uploads、exports 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{"uploads", "exports"} {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
