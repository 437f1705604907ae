package di

import (
	"io"
	"os"

	dockerclient "github.com/devantler-tech/kci/pkg/client/docker"
	"github.com/devantler-tech/kci/pkg/client/oci"
	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/k8s"
	configmanager "github.com/devantler-tech/kci/pkg/io/config-manager/kci"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/image"
	"github.com/devantler-tech/kci/pkg/svc/pipeline"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/docker/docker/client"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
	"k8s.io/client-go/kubernetes"
)

// TestRunnerName names the runner that streams the test command's output.
const TestRunnerName = "test-runner"

// NewRuntime constructs the runtime container used by the root command.
// Configuration, logger and notifier are supplied per invocation with
// WithConfig, WithLogger and WithNotifier.
func NewRuntime() *Runtime {
	return New(
		provideClusterProvisionerFactory,
		provideRunner,
		provideTestRunner,
		provideDockerClient,
		provideRegistryVerifier,
		providePublisher,
		provideMaterializer,
		provideClientsetFactory,
	)
}

// WithConfig supplies the loaded configuration.
func WithConfig(cfg *configmanager.Config) Module {
	return func(i Injector) error {
		do.ProvideValue(i, cfg)

		return nil
	}
}

// WithLogger supplies the debug logger.
func WithLogger(logger logrus.FieldLogger) Module {
	return func(i Injector) error {
		do.ProvideValue(i, logger)

		return nil
	}
}

// WithNotifier supplies the console notifier.
func WithNotifier(notifier *notify.Notifier) Module {
	return func(i Injector) error {
		do.ProvideValue(i, notifier)

		return nil
	}
}

func provideClusterProvisionerFactory(i Injector) error {
	do.Provide(i, func(Injector) (clusterprovisioner.Factory, error) {
		return clusterprovisioner.DefaultFactory{}, nil
	})

	return nil
}

// provideRunner registers the quiet runner. Output only reaches the debug log.
func provideRunner(i Injector) error {
	do.Provide(i, func(injector Injector) (runner.Runner, error) {
		logger, err := ResolveLogger(injector)
		if err != nil {
			return nil, err
		}

		return runner.NewExecRunner(logger), nil
	})

	return nil
}

// provideTestRunner registers a runner that also streams to the console.
func provideTestRunner(i Injector) error {
	do.ProvideNamed(i, TestRunnerName, func(injector Injector) (runner.Runner, error) {
		logger, err := ResolveLogger(injector)
		if err != nil {
			return nil, err
		}

		var stdout io.Writer = os.Stdout

		notifier, err := do.Invoke[*notify.Notifier](injector)
		if err == nil && notifier != nil {
			stdout = notifier.Writer()
		}

		return runner.NewExecRunner(logger, runner.WithStreams(stdout, os.Stderr)), nil
	})

	return nil
}

func provideDockerClient(i Injector) error {
	do.Provide(i, func(Injector) (client.APIClient, error) {
		return dockerclient.GetDockerClient()
	})

	return nil
}

func provideRegistryVerifier(i Injector) error {
	do.Provide(i, func(Injector) (oci.RegistryVerifier, error) {
		return oci.NewRegistryVerifier(), nil
	})

	return nil
}

func providePublisher(i Injector) error {
	do.Provide(i, func(injector Injector) (pipeline.Publisher, error) {
		cmdRunner, err := ResolveRunner(injector)
		if err != nil {
			return nil, err
		}

		docker, err := ResolveDockerClient(injector)
		if err != nil {
			return nil, err
		}

		verifier, err := ResolveRegistryVerifier(injector)
		if err != nil {
			return nil, err
		}

		logger, err := ResolveLogger(injector)
		if err != nil {
			return nil, err
		}

		return image.NewPublisher(cmdRunner, docker, verifier, logger), nil
	})

	return nil
}

func provideMaterializer(i Injector) error {
	do.Provide(i, func(injector Injector) (*credentials.Materializer, error) {
		cfg, err := ResolveConfig(injector)
		if err != nil {
			return nil, err
		}

		logger, err := ResolveLogger(injector)
		if err != nil {
			return nil, err
		}

		return credentials.New(cfg.Home, credentials.WithLogger(logger))
	})

	return nil
}

func provideClientsetFactory(i Injector) error {
	do.Provide(i, func(Injector) (pipeline.ClientsetFactory, error) {
		return func(kubeconfig string) (kubernetes.Interface, error) {
			clientset, err := k8s.NewClientset(kubeconfig)
			if err != nil {
				return nil, err
			}

			return clientset, nil
		}, nil
	})

	return nil
}
