package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix CI runners use when passing action inputs
	EnvPrefix = "INPUT"
	// ConfigFileName is the optional config file looked up in the working directory
	ConfigFileName = ".kustomize-deploy"
)

// Config is the immutable input of a single deployment update.
type Config struct {
	RepoURL           string `mapstructure:"deployment_repo_url"`
	Branch            string `mapstructure:"deployment_repo_branch"`
	KustomizationPath string `mapstructure:"kustomization_path"`
	DeployKey         string `mapstructure:"deploy_key"`
	GitUserName       string `mapstructure:"git_user_name"`
	GitUserEmail      string `mapstructure:"git_user_email"`

	SSHDir         string `mapstructure:"ssh_dir"`
	KnownHostsPath string `mapstructure:"known_hosts_path"`
	KustomizeBin   string `mapstructure:"kustomize_bin"`
	WorkDirBase    string `mapstructure:"work_dir_base"`
	LogLevel       string `mapstructure:"log_level"`
	ReportDir      string `mapstructure:"report_dir"`

	// ImageArgs come from positional arguments, not from the environment.
	ImageArgs []string `mapstructure:"-"`
}

// requiredKeys lists the inputs every run needs, in reporting order.
var requiredKeys = []string{
	"deployment_repo_url",
	"deployment_repo_branch",
	"kustomization_path",
	"deploy_key",
	"git_user_name",
	"git_user_email",
}

var optionalKeys = []string{
	"ssh_dir",
	"known_hosts_path",
	"kustomize_bin",
	"work_dir_base",
	"log_level",
	"report_dir",
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		SSHDir:         defaultSSHDir(),
		KnownHostsPath: DefaultKnownHostsPath(),
		KustomizeBin:   "kustomize",
		LogLevel:       "info",
	}
}

// Missing returns the names of required inputs that are absent or blank.
func (c *Config) Missing() []string {
	values := map[string]string{
		"deployment_repo_url":    c.RepoURL,
		"deployment_repo_branch": c.Branch,
		"kustomization_path":     c.KustomizationPath,
		"deploy_key":             c.DeployKey,
		"git_user_name":          c.GitUserName,
		"git_user_email":         c.GitUserEmail,
	}
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// DefaultKnownHostsPath returns the known_hosts file shipped next to the executable.
func DefaultKnownHostsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "known_hosts"
	}
	return filepath.Join(filepath.Dir(exe), "known_hosts")
}

func defaultSSHDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ssh"
	}
	return filepath.Join(home, ".ssh")
}

// LoadConfig reads the environment (and the optional config file) into a
// Config. It does not validate: missing inputs are reported as a batch by
// the orchestrator before anything else runs.
func LoadConfig(imageArgs []string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	// Required inputs are read from INPUT_<KEY>, then the bare upper-case name.
	// Optional keys only honor INPUT_<KEY>.
	for _, key := range requiredKeys {
		upper := strings.ToUpper(key)
		if err := v.BindEnv(key, EnvPrefix+"_"+upper, upper); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	for _, key := range optionalKeys {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	defaults := DefaultConfig()
	v.SetDefault("ssh_dir", defaults.SSHDir)
	v.SetDefault("known_hosts_path", defaults.KnownHostsPath)
	v.SetDefault("kustomize_bin", defaults.KustomizeBin)
	v.SetDefault("log_level", defaults.LogLevel)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.ImageArgs = append([]string(nil), imageArgs...)
	return &config, nil
}
