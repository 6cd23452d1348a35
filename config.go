package grepgo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up in the working directory
// and the user's home directory.
const DefaultConfigName = ".grepgo.yaml"

// FileConfig mirrors the Option surface for YAML configuration files.
// Zero values mean "not set"; CLI flags take precedence over file values.
type FileConfig struct {
	SearchMode       string   `yaml:"search_mode"`
	Algorithm        string   `yaml:"algorithm"`
	CaseInsensitive  bool     `yaml:"case_insensitive"`
	IncludeExts      []string `yaml:"include_extensions"`
	ExcludeExts      []string `yaml:"exclude_extensions"`
	SearchAllFiles   bool     `yaml:"search_all_files"`
	TextOnly         bool     `yaml:"text_only"`
	FileTypes        string   `yaml:"file_types"`
	SafetyPolicy     string   `yaml:"safety_policy"`
	MaxFileSize      int64    `yaml:"max_file_size"`
	SkipBinary       bool     `yaml:"skip_binary"`
	SearchCompressed bool     `yaml:"search_compressed"`
	ContextBefore    int      `yaml:"context_before"`
	ContextAfter     int      `yaml:"context_after"`
	Workers          int      `yaml:"workers"`
	FollowSymlinks   bool     `yaml:"follow_symlinks"`
	IgnoreDirs       []string `yaml:"ignore_dirs"`
	MaxDepth         int      `yaml:"max_depth"`
	MmapThreshold    int64    `yaml:"mmap_threshold"`
	MaxMappedBytes   int64    `yaml:"max_mapped_bytes"`
	IOBytesPerSec    int64    `yaml:"io_bytes_per_sec"`
}

// LoadConfig reads a YAML config file. A syntactically invalid file is a
// ConfigError; semantic validation happens in New.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, newConfigError("config-file", fmt.Sprintf("cannot parse %s", path), err)
	}
	return &cfg, nil
}

// FindConfig locates the default config file, checking the working
// directory first and the home directory second. Returns an empty path
// when no file exists.
func FindConfig() string {
	if _, err := os.Stat(DefaultConfigName); err == nil {
		return DefaultConfigName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, DefaultConfigName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Options converts the file values into scanner options. Unset fields
// contribute nothing, so later options (CLI flags) win.
func (c *FileConfig) Options() []Option {
	if c == nil {
		return nil
	}
	var opts []Option
	if c.SearchMode != "" {
		opts = append(opts, WithSearchMode(c.SearchMode))
	}
	if c.Algorithm != "" {
		opts = append(opts, WithAlgorithm(c.Algorithm))
	}
	if c.CaseInsensitive {
		opts = append(opts, WithCaseInsensitive())
	}
	if len(c.IncludeExts) > 0 {
		opts = append(opts, WithIncludeExtensions(c.IncludeExts...))
	}
	if len(c.ExcludeExts) > 0 {
		opts = append(opts, WithExcludeExtensions(c.ExcludeExts...))
	}
	if c.SearchAllFiles {
		opts = append(opts, WithSearchAllFiles())
	}
	if c.TextOnly {
		opts = append(opts, WithTextOnly())
	}
	if c.FileTypes != "" {
		opts = append(opts, WithFileTypes(c.FileTypes))
	}
	if c.SafetyPolicy != "" {
		opts = append(opts, WithSafetyPolicy(c.SafetyPolicy))
	}
	if c.MaxFileSize > 0 {
		opts = append(opts, WithMaxFileSize(c.MaxFileSize))
	}
	if c.SkipBinary {
		opts = append(opts, WithSkipBinary())
	}
	if c.SearchCompressed {
		opts = append(opts, WithSearchCompressed())
	}
	if c.ContextBefore > 0 || c.ContextAfter > 0 {
		opts = append(opts, WithContextLines(c.ContextBefore, c.ContextAfter))
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if c.FollowSymlinks {
		opts = append(opts, WithFollowSymlinks())
	}
	if len(c.IgnoreDirs) > 0 {
		opts = append(opts, WithIgnoreDirs(c.IgnoreDirs...))
	}
	if c.MaxDepth > 0 {
		opts = append(opts, WithMaxDepth(c.MaxDepth))
	}
	if c.MmapThreshold > 0 {
		opts = append(opts, WithMmapThreshold(c.MmapThreshold))
	}
	if c.MaxMappedBytes > 0 {
		opts = append(opts, WithMappingBudget(0, c.MaxMappedBytes))
	}
	if c.IOBytesPerSec > 0 {
		opts = append(opts, WithIORateLimit(c.IOBytesPerSec))
	}
	return opts
}

// IsConfigError reports whether err is a configuration problem.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
