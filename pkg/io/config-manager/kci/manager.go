package configmanager

import (
	"errors"
	"fmt"
	"io"
	"strings"

	configmanagerinterface "github.com/devantler-tech/kci/pkg/io/config-manager"
	"github.com/devantler-tech/kci/pkg/svc/installer"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every kci environment variable.
const EnvPrefix = "KCI"

// envAliases are conventional variables read for a setting, after KCI_<KEY>.
var envAliases = map[string][]string{
	"registry-username":     {"DOCKER_USERNAME"},
	"registry-password":     {"DOCKER_PASSWORD"},
	"aws-access-key-id":     {"AWS_ACCESS_KEY_ID"},
	"aws-secret-access-key": {"AWS_SECRET_ACCESS_KEY"},
	"region":                {"AWS_DEFAULT_REGION", "AWS_REGION"},
	"home":                  {"HOME"},
}

// ConfigManager loads Config for the kci command line.
type ConfigManager struct {
	Viper  *viper.Viper
	Config *Config
	Writer io.Writer

	configLoaded bool
}

var _ configmanagerinterface.ConfigManager[Config] = (*ConfigManager)(nil)

// NewConfigManager creates a manager with a fresh Viper instance.
func NewConfigManager(writer io.Writer) *ConfigManager {
	if writer == nil {
		writer = io.Discard
	}

	return &ConfigManager{
		Viper:  InitializeViper(),
		Config: &Config{},
		Writer: writer,
	}
}

// InitializeViper returns a Viper instance reading kci.yaml from the working
// directory and KCI_ prefixed environment variables.
func InitializeViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("kci")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + envName(key)}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	return v
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// AddFlags registers every setting on flags and binds it to Viper.
func (m *ConfigManager) AddFlags(flags *pflag.FlagSet) {
	backend := DefaultBackend
	runtime := DefaultRuntime

	flags.Var(&backend, "backend", "cluster provisioning backend")
	flags.Bool("no-cleanup", false, "keep every created resource and print how to delete it")
	flags.String("home", "", "directory for generated credentials and state (default: user home)")
	flags.String("log-file", "", "debug log path (default: <home>/.kci/debug.log)")
	flags.String("source-dir", DefaultSourceDir, "working copy to build and test")
	flags.String("dockerfile", "", "Dockerfile relative to --source-dir (default: Dockerfile)")

	flags.String("registry", DefaultRegistry, "registry the image is pushed to")
	flags.String("registry-username", "", "registry user (env DOCKER_USERNAME)")
	flags.String("registry-password", "", "registry password or token (env DOCKER_PASSWORD)")
	flags.String("image-repository", "", "image repository (default: <registry-username>/<source dir name>)")
	flags.String("image-tag", "", "image tag (default: short commit of the working copy)")
	flags.String("target-image", "", "image name the test suite runs (default: the published image)")

	flags.String("region", DefaultRegion, "AWS region (env AWS_DEFAULT_REGION, AWS_REGION)")
	flags.String("aws-access-key-id", "", "AWS access key id (env AWS_ACCESS_KEY_ID)")
	flags.String("aws-secret-access-key", "", "AWS secret access key (env AWS_SECRET_ACCESS_KEY)")

	flags.String("cluster-name", "", "cluster name (default: kci-<random>.k8s.local)")
	flags.String("state-bucket", "", "S3 bucket for cluster state (default: kci-state-<random>)")
	flags.Int("node-count", types.DefaultNodeCount, "number of worker nodes")
	flags.Int("zone-count", types.DefaultZoneCount, "availability zones to spread workers over")
	flags.String("node-size", types.DefaultNodeSize, "worker instance type")
	flags.String("control-plane-size", types.DefaultControlPlaneSize, "control-plane instance type")
	flags.String("kubernetes-version", "", "Kubernetes version (default: chosen by kops)")
	flags.String("dns-zone", "", "DNS zone for a non-gossip cluster name")
	flags.Duration("provision-timeout", types.DefaultValidateTimeout, "how long to wait for the cluster to validate")

	flags.Var(&runtime, "container-runtime", "container runtime on the worker nodes")
	flags.Int("install-retries", installer.DefaultRetries, "image install timeout in minutes")
	flags.String("test-command", "", "command to run against the cluster, with KUBECONFIG set")

	flags.VisitAll(func(flag *pflag.Flag) {
		_ = m.Viper.BindPFlag(flag.Name, flag)
	})
}

// Load resolves the configuration. Priority: defaults < kci.yaml < environment < flags.
// Validation problems are returned together as a *ConfigurationError.
func (m *ConfigManager) Load(opts configmanagerinterface.LoadOptions) (*Config, error) {
	if m.configLoaded {
		return m.Config, nil
	}

	if !opts.IgnoreConfigFile {
		err := m.readConfig(opts.Silent)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	err := m.Viper.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		expandEnvHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		setterDecodeHook(),
	)))
	if err != nil {
		return nil, &ConfigurationError{Invalid: []string{err.Error()}}
	}

	applyDefaults(cfg)

	err = resolvePaths(cfg)
	if err != nil {
		return nil, &ConfigurationError{Invalid: []string{err.Error()}}
	}

	err = validate(cfg)
	if err != nil {
		return nil, err
	}

	m.Config = cfg
	m.configLoaded = true

	return cfg, nil
}

func (m *ConfigManager) readConfig(silent bool) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		return nil
	}

	if !silent {
		notify.WriteMessage(notify.Message{
			Type:    notify.InfoType,
			Content: "using config file %s",
			Args:    []any{m.Viper.ConfigFileUsed()},
			Writer:  m.Writer,
		})
	}

	return nil
}
