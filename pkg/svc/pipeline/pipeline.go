package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/image"
	"github.com/devantler-tech/kci/pkg/svc/installer"
	"github.com/devantler-tech/kci/pkg/svc/installer/prepull"
	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"github.com/devantler-tech/kci/pkg/svc/source"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"
)

var (
	// ErrInvalidImage is returned when no valid image reference can be composed.
	ErrInvalidImage = errors.New("invalid image reference")
	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("pipeline dependency is missing")
)

// Publisher builds and pushes the application image.
type Publisher interface {
	Publish(ctx context.Context, req image.Request) (image.Result, error)
}

// ClientsetFactory builds a Kubernetes client from a kubeconfig path.
type ClientsetFactory func(kubeconfig string) (kubernetes.Interface, error)

// InstallerFactory builds the image installer for a cluster.
type InstallerFactory func(clientset kubernetes.Interface, opts prepull.Options) installer.Installer

// Deps are the pipeline's collaborators.
type Deps struct {
	Materializer *credentials.Materializer
	Publisher    Publisher
	Provisioner  clusterprovisioner.ClusterProvisioner
	NewClientset ClientsetFactory
	NewInstaller InstallerFactory
	// TestRunner runs the test hand-off. It should stream output to the console.
	TestRunner runner.Runner
	// Inspect defaults to source.Inspect.
	Inspect  func(dir string) (source.Revision, error)
	Notifier *notify.Notifier
	Logger   logrus.FieldLogger
}

// Report summarizes a successful run.
type Report struct {
	Revision       source.Revision
	Image          image.Result
	TargetImage    string
	Cluster        *types.Cluster
	TestConfigPath string
}

// Pipeline runs the CI pass.
type Pipeline struct {
	deps Deps
	cfg  Config
}

// New creates a Pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	if deps.Inspect == nil {
		deps.Inspect = source.Inspect
	}

	if deps.Notifier == nil {
		deps.Notifier = notify.New(nil, nil)
	}

	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	if deps.NewInstaller == nil {
		deps.NewInstaller = func(clientset kubernetes.Interface, opts prepull.Options) installer.Installer {
			return prepull.NewInstaller(clientset, opts,
				prepull.WithNotifier(deps.Notifier),
				prepull.WithLogger(deps.Logger),
				prepull.WithObserver(readiness.NewProgressObserver(deps.Notifier, deps.Logger)),
			)
		}
	}

	return &Pipeline{deps: deps, cfg: cfg}
}

// stageInfo holds the console text of one stage.
type stageInfo struct {
	Title         string
	Emoji         string
	FailurePrefix string
}

// stage announces a step, runs it and prints its success line with the elapsed time.
func (p *Pipeline) stage(info stageInfo, action func() (string, error)) error {
	started := time.Now()

	p.deps.Notifier.Titlef(info.Emoji, "%s", info.Title)

	success, err := action()
	if err != nil {
		p.deps.Logger.WithError(err).WithField("stage", info.Title).Debug("stage failed")

		return fmt.Errorf("%s: %w", info.FailurePrefix, err)
	}

	p.deps.Notifier.Successf("%s [%s]", success, time.Since(started).Round(time.Millisecond))

	return nil
}

// Run executes the pass. Resources are tracked on lc as they are created.
func (p *Pipeline) Run(ctx context.Context, lc *lifecycle.Lifecycle) (*Report, error) {
	err := p.validate()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	desc := p.descriptor()

	steps := []func(context.Context, *lifecycle.Lifecycle, *Report, *types.Descriptor) error{
		p.materializeCredentials,
		p.resolveSource,
		p.publishImage,
		p.provisionCluster,
		p.installImage,
		p.writeTestConfig,
		p.runTests,
	}

	for _, step := range steps {
		err = ctx.Err()
		if err != nil {
			return report, fmt.Errorf("pipeline interrupted: %w", err)
		}

		err = step(ctx, lc, report, &desc)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (p *Pipeline) validate() error {
	if p.cfg.Home == "" {
		return ErrHomeRequired
	}

	var missing []string

	if p.deps.Materializer == nil {
		missing = append(missing, "credential materializer")
	}

	if p.deps.Publisher == nil {
		missing = append(missing, "image publisher")
	}

	if p.deps.Provisioner == nil {
		missing = append(missing, "cluster provisioner")
	}

	if p.deps.NewClientset == nil {
		missing = append(missing, "kubernetes client factory")
	}

	if p.cfg.TestCommand != "" && p.deps.TestRunner == nil {
		missing = append(missing, "test runner")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}

	return nil
}

// descriptor fills the run-specific parts of the cluster descriptor.
func (p *Pipeline) descriptor() types.Descriptor {
	desc := p.cfg.Cluster.WithDefaults()

	if desc.Kubeconfig == "" {
		desc.Kubeconfig = p.cfg.DefaultKubeconfigPath()
	}

	if desc.Region == "" {
		desc.Region = p.cfg.AWS.Region
	}

	desc.Env = append(desc.Env,
		"HOME="+p.cfg.Home,
		"AWS_ACCESS_KEY_ID="+p.cfg.AWS.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY="+p.cfg.AWS.SecretAccessKey,
		"AWS_REGION="+desc.Region,
	)

	return desc
}

func (p *Pipeline) materializeCredentials(
	_ context.Context, _ *lifecycle.Lifecycle, _ *Report, desc *types.Descriptor,
) error {
	return p.stage(stageInfo{Title: "Prepare credentials", Emoji: "🔑", FailurePrefix: "prepare credentials"},
		func() (string, error) {
			pubKey, _, err := p.deps.Materializer.EnsureSSHKeyPair()
			if err != nil {
				return "", err
			}

			if desc.SSHPublicKey == "" {
				desc.SSHPublicKey = pubKey
			}

			_, err = p.deps.Materializer.EnsureDockerConfig(p.cfg.Login)
			if err != nil {
				return "", err
			}

			aws := p.cfg.AWS
			if aws.Region == "" {
				aws.Region = desc.Region
			}

			_, err = p.deps.Materializer.EnsureAWSFiles(aws)
			if err != nil {
				return "", err
			}

			return "credentials ready", nil
		})
}

func (p *Pipeline) resolveSource(_ context.Context, _ *lifecycle.Lifecycle, report *Report, _ *types.Descriptor) error {
	return p.stage(stageInfo{Title: "Inspect working copy", Emoji: "🔎", FailurePrefix: "inspect working copy"},
		func() (string, error) {
			rev, err := p.deps.Inspect(p.cfg.SourceDir)
			if err != nil {
				if !errors.Is(err, source.ErrNotARepository) || p.cfg.ImageTag == "" {
					return "", err
				}

				abs, absErr := filepath.Abs(p.cfg.SourceDir)
				if absErr != nil {
					return "", fmt.Errorf("resolve %s: %w", p.cfg.SourceDir, absErr)
				}

				p.deps.Notifier.Warningf("%s is not a git working copy, using tag %s", abs, p.cfg.ImageTag)
				rev = source.Revision{Root: abs}
			}

			report.Revision = rev

			if rev.Commit == "" {
				return "using " + rev.Root, nil
			}

			if rev.Dirty {
				p.deps.Notifier.Warningf("working copy has uncommitted changes")
			}

			return fmt.Sprintf("%s at %s", rev.Name(), rev.ShortCommit()), nil
		})
}

func (p *Pipeline) publishImage(ctx context.Context, _ *lifecycle.Lifecycle, report *Report, _ *types.Descriptor) error {
	return p.stage(stageInfo{Title: "Publish image", Emoji: "📦", FailurePrefix: "publish image"},
		func() (string, error) {
			ref, err := ImageReference(p.cfg, report.Revision)
			if err != nil {
				return "", err
			}

			p.deps.Notifier.Activityf("building and pushing %s", ref)

			result, err := p.deps.Publisher.Publish(ctx, image.Request{
				ContextDir: report.Revision.Root,
				Dockerfile: p.cfg.Dockerfile,
				Image:      ref,
				Revision:   report.Revision.Commit,
				Login:      p.cfg.Login,
			})
			if err != nil {
				return "", err
			}

			report.Image = result

			report.TargetImage = p.cfg.TargetImage
			if report.TargetImage == "" {
				report.TargetImage = result.Reference
			}

			if result.Digest != "" {
				return fmt.Sprintf("pushed %s@%s", result.Reference, result.Digest), nil
			}

			return "pushed " + result.Reference, nil
		})
}

func (p *Pipeline) provisionCluster(
	ctx context.Context, lc *lifecycle.Lifecycle, report *Report, desc *types.Descriptor,
) error {
	return p.stage(stageInfo{Title: "Provision cluster " + desc.Name, Emoji: "☁️", FailurePrefix: "provision cluster"},
		func() (string, error) {
			cluster, err := p.deps.Provisioner.Provision(ctx, *desc, lc)
			if err != nil {
				return "", err
			}

			report.Cluster = cluster

			return fmt.Sprintf("cluster %s is up at %s", cluster.Name, cluster.APIServer), nil
		})
}

func (p *Pipeline) installImage(ctx context.Context, lc *lifecycle.Lifecycle, report *Report, _ *types.Descriptor) error {
	return p.stage(stageInfo{Title: "Install image", Emoji: "🚚", FailurePrefix: "install image"},
		func() (string, error) {
			clientset, err := p.deps.NewClientset(report.Cluster.Kubeconfig)
			if err != nil {
				return "", err
			}

			timeout := p.cfg.APIServerTimeout
			if timeout <= 0 {
				timeout = DefaultAPIServerTimeout
			}

			_, err = readiness.WaitForAPIServerReady(ctx, clientset, timeout)
			if err != nil {
				return "", err
			}

			_, err = readiness.WaitForNodeReady(ctx, clientset, timeout)
			if err != nil {
				return "", err
			}

			opts := prepull.Options{
				Source:  report.Image.Reference,
				Target:  report.TargetImage,
				Runtime: p.cfg.Runtime,
				Retries: p.cfg.InstallRetries,
			}

			if p.cfg.Login.Username != "" {
				login := p.cfg.Login
				opts.Login = &login
			}

			inst := p.deps.NewInstaller(clientset, opts)

			// A failed install keeps its DaemonSet so the pods can be inspected.
			err = inst.Install(ctx)
			if err != nil {
				return "", err
			}

			err = lc.Track(lifecycle.Action{
				Name: "image pre-pull daemonset",
				Run:  inst.Uninstall,
				ManualCleanup: fmt.Sprintf("kubectl --kubeconfig %s delete namespace %s",
					report.Cluster.Kubeconfig, prepull.DefaultNamespace),
			})
			if err != nil {
				return "", err
			}

			return report.TargetImage + " is on every worker node", nil
		})
}

func (p *Pipeline) writeTestConfig(_ context.Context, _ *lifecycle.Lifecycle, report *Report, _ *types.Descriptor) error {
	return p.stage(stageInfo{Title: "Configure test runner", Emoji: "📝", FailurePrefix: "write test config"},
		func() (string, error) {
			path := p.cfg.TestConfigPath()

			err := WriteTestConfig(path, TestConfig{
				SourceDir:   report.Revision.Root,
				Kubeconfig:  report.Cluster.Kubeconfig,
				Image:       report.Image.Reference,
				Digest:      report.Image.Digest,
				TargetImage: report.TargetImage,
				Revision:    report.Revision.Commit,
				Cluster: ClusterInfo{
					Name:       report.Cluster.Name,
					APIServer:  report.Cluster.APIServer,
					StateStore: report.Cluster.StateStore,
					Zones:      report.Cluster.Zones,
				},
			})
			if err != nil {
				return "", err
			}

			report.TestConfigPath = path

			return "wrote " + path, nil
		})
}

func (p *Pipeline) runTests(ctx context.Context, _ *lifecycle.Lifecycle, report *Report, _ *types.Descriptor) error {
	if p.cfg.TestCommand == "" {
		p.deps.Notifier.Infof("no test command given, cluster is ready for %s", report.TestConfigPath)

		return nil
	}

	return p.stage(stageInfo{Title: "Run tests", Emoji: "🧪", FailurePrefix: "run tests"},
		func() (string, error) {
			_, err := p.deps.TestRunner.Run(ctx, runner.Invocation{
				Args: []string{"/bin/sh", "-c", p.cfg.TestCommand},
				Env: []string{
					"KUBECONFIG=" + report.Cluster.Kubeconfig,
					"KCI_TEST_CONFIG=" + report.TestConfigPath,
					"KCI_IMAGE=" + report.TargetImage,
				},
				Dir: report.Revision.Root,
			})
			if err != nil {
				return "", err
			}

			return "tests passed", nil
		})
}
