package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate.
const (
	DefaultProvider       = "openai"
	DefaultPromptTemplate = "Prompt_Template.mkd"
	DefaultDocTemplate    = "CV_Template.docx"
	DefaultCVSource       = "fullcv.mkd"
	DefaultOutputDir      = "."
	DefaultTimezone       = "Europe/London"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "pretty"
	DefaultDotEnv         = ".env"
	dirName               = ".cv-customizer"
	fileName              = "config.json"
)

// Environment variables consulted for API keys.
const (
	OpenAIKeyEnv    = "OPENAI_API_KEY"
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
)

// Config represents the application configuration.
type Config struct {
	Provider        string          `json:"provider,omitempty" yaml:"provider,omitempty"`
	OpenAIAPIKey    string          `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
	AnthropicAPIKey string          `json:"anthropic_api_key,omitempty" yaml:"anthropic_api_key,omitempty"`
	Models          ModelsConfig    `json:"models" yaml:"models"`
	Templates       TemplatesConfig `json:"templates" yaml:"templates"`
	Sources         SourcesConfig   `json:"sources" yaml:"sources"`
	Defaults        DefaultConfig   `json:"defaults" yaml:"defaults"`
	Logging         LoggingConfig   `json:"logging" yaml:"logging"`
}

// ModelsConfig holds model selection for tailoring and profile import.
type ModelsConfig struct {
	Tailor string `json:"tailor,omitempty" yaml:"tailor,omitempty"`
	Import string `json:"import,omitempty" yaml:"import,omitempty"`
}

// TemplatesConfig points at the prompt and document templates.
type TemplatesConfig struct {
	Prompt   string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Document string `json:"document,omitempty" yaml:"document,omitempty"`
}

// SourcesConfig holds default inputs.
type SourcesConfig struct {
	CV string `json:"cv,omitempty" yaml:"cv,omitempty"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Timezone  string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Credentials are the explicit key sources given on the command line.
type Credentials struct {
	Key     string
	KeyFile string
	// DotEnv is the .env file consulted last. Empty means DefaultDotEnv.
	DotEnv string
}

// DefaultPath returns $HOME/.cv-customizer/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, dirName, fileName)
	return path, err
}

// Load reads configuration from configPath, or from the default path when it is empty.
// A missing file at the default path yields the built-in defaults.
func Load(configPath string) (cfg Config, err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			err = apperr.New(apperr.Usage, err)
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && configPath == "" {
			err = cfg.Validate()
			return cfg, err
		}
		if os.IsNotExist(err) {
			err = apperr.Newf(apperr.Usage, "config file not found: %s (run 'cv-customizer init' to create)", path)
			return cfg, err
		}
		err = apperr.Wrapf(apperr.Usage, err, "failed to read config file: %s", path)
		return cfg, err
	}

	err = unmarshal(path, data, &cfg)
	if err != nil {
		err = apperr.Wrapf(apperr.Usage, err, "failed to parse config file: %s", path)
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

func isYAML(path string) (ok bool) {
	ext := strings.ToLower(filepath.Ext(path))
	ok = ext == ".yaml" || ext == ".yml"
	return ok
}

func unmarshal(path string, data []byte, cfg *Config) (err error) {
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
		return err
	}
	err = json.Unmarshal(data, cfg)
	return err
}

func marshal(path string, cfg Config) (data []byte, err error) {
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
		return data, err
	}
	data, err = json.MarshalIndent(cfg, "", "  ")
	return data, err
}

// Validate checks enumerated fields and fills in defaults.
func (c *Config) Validate() (err error) {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	c.Provider = strings.ToLower(c.Provider)
	if c.Provider != "openai" && c.Provider != "anthropic" {
		err = apperr.Newf(apperr.Usage, "provider must be openai or anthropic, got %q", c.Provider)
		return err
	}

	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Format != "pretty" && c.Logging.Format != "json" {
		err = apperr.Newf(apperr.Usage, "logging.format must be pretty or json, got %q", c.Logging.Format)
		return err
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Templates.Prompt == "" {
		c.Templates.Prompt = DefaultPromptTemplate
	}
	if c.Templates.Document == "" {
		c.Templates.Document = DefaultDocTemplate
	}
	if c.Sources.CV == "" {
		c.Sources.CV = DefaultCVSource
	}
	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = DefaultOutputDir
	}
	if c.Defaults.Timezone == "" {
		c.Defaults.Timezone = DefaultTimezone
	}

	return err
}

// KeyEnv returns the environment variable holding the key for provider.
func KeyEnv(provider string) (name string) {
	name = OpenAIKeyEnv
	if provider == "anthropic" {
		name = AnthropicKeyEnv
	}
	return name
}

func (c *Config) configKey(provider string) (key string) {
	key = c.OpenAIAPIKey
	if provider == "anthropic" {
		key = c.AnthropicAPIKey
	}
	return key
}

// ResolveAPIKey finds the API key for provider. The order is the explicit key, the key
// file, the config file, the environment, then the .env file. A key file that does not
// exist is skipped.
func (c *Config) ResolveAPIKey(provider string, creds Credentials) (key string, err error) {
	if creds.Key != "" {
		key = creds.Key
		return key, err
	}

	if creds.KeyFile != "" {
		var data []byte
		data, err = os.ReadFile(creds.KeyFile)
		switch {
		case err == nil:
			key = strings.TrimSpace(string(data))
			if key != "" {
				return key, err
			}
		case os.IsNotExist(err):
			err = nil
		default:
			err = apperr.Wrapf(apperr.InputRead, err, "failed to read API key file: %s", creds.KeyFile)
			return key, err
		}
	}

	key = c.configKey(provider)
	if key != "" {
		return key, err
	}

	env := KeyEnv(provider)
	key = os.Getenv(env)
	if key != "" {
		return key, err
	}

	dotEnv := creds.DotEnv
	if dotEnv == "" {
		dotEnv = DefaultDotEnv
	}
	values, readErr := godotenv.Read(dotEnv)
	if readErr == nil {
		key = strings.TrimSpace(values[env])
		if key != "" {
			return key, err
		}
	}

	err = apperr.Newf(apperr.CredentialMissing, "%s API key not provided. Set %s, use --api-key, or --api-key-file", provider, env)
	return key, err
}

// InitConfig writes a default configuration file and a starter prompt template next to it.
// Existing files are never overwritten. It returns the paths written.
func InitConfig(configPath, promptTemplate string) (written []string, err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return written, err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = apperr.Wrapf(apperr.Persist, err, "failed to create config directory: %s", dir)
		return written, err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = apperr.Newf(apperr.Usage, "config file already exists: %s", path)
		return written, err
	}

	promptPath := filepath.Join(dir, DefaultPromptTemplate)

	defaultConfig := Config{
		Provider: DefaultProvider,
		Templates: TemplatesConfig{
			Prompt:   promptPath,
			Document: DefaultDocTemplate,
		},
	}
	err = defaultConfig.Validate()
	if err != nil {
		return written, err
	}

	var data []byte
	data, err = marshal(path, defaultConfig)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return written, err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = apperr.Wrapf(apperr.Persist, err, "failed to write config file: %s", path)
		return written, err
	}
	written = append(written, path)

	if promptTemplate == "" {
		return written, err
	}

	_, statErr := os.Stat(promptPath)
	if statErr == nil {
		return written, err
	}

	err = os.WriteFile(promptPath, []byte(promptTemplate), 0600)
	if err != nil {
		err = apperr.Wrapf(apperr.Persist, err, "failed to write prompt template: %s", promptPath)
		return written, err
	}
	written = append(written, promptPath)

	return written, err
}
