package di

import (
	"fmt"

	"github.com/devantler-tech/kci/pkg/client/oci"
	"github.com/devantler-tech/kci/pkg/cmd/runner"
	configmanager "github.com/devantler-tech/kci/pkg/io/config-manager/kci"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/pipeline"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/docker/docker/client"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
)

// Dependency resolvers.

// ResolveConfig retrieves the loaded configuration.
func ResolveConfig(injector Injector) (*configmanager.Config, error) {
	cfg, err := do.Invoke[*configmanager.Config](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve config dependency: %w", err)
	}

	return cfg, nil
}

// ResolveLogger retrieves the debug logger.
func ResolveLogger(injector Injector) (logrus.FieldLogger, error) {
	logger, err := do.Invoke[logrus.FieldLogger](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve logger dependency: %w", err)
	}

	return logger, nil
}

// ResolveNotifier retrieves the console notifier.
func ResolveNotifier(injector Injector) (*notify.Notifier, error) {
	notifier, err := do.Invoke[*notify.Notifier](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve notifier dependency: %w", err)
	}

	return notifier, nil
}

// ResolveClusterProvisionerFactory retrieves the cluster provisioner factory.
func ResolveClusterProvisionerFactory(injector Injector) (clusterprovisioner.Factory, error) {
	factory, err := do.Invoke[clusterprovisioner.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve provisioner factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveRunner retrieves the quiet command runner.
func ResolveRunner(injector Injector) (runner.Runner, error) {
	cmdRunner, err := do.Invoke[runner.Runner](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve runner dependency: %w", err)
	}

	return cmdRunner, nil
}

// ResolveTestRunner retrieves the streaming runner used for the test command.
func ResolveTestRunner(injector Injector) (runner.Runner, error) {
	cmdRunner, err := do.InvokeNamed[runner.Runner](injector, TestRunnerName)
	if err != nil {
		return nil, fmt.Errorf("resolve test runner dependency: %w", err)
	}

	return cmdRunner, nil
}

// ResolveDockerClient retrieves the Docker engine client.
func ResolveDockerClient(injector Injector) (client.APIClient, error) {
	docker, err := do.Invoke[client.APIClient](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve docker client dependency: %w", err)
	}

	return docker, nil
}

// ResolveRegistryVerifier retrieves the registry verifier.
func ResolveRegistryVerifier(injector Injector) (oci.RegistryVerifier, error) {
	verifier, err := do.Invoke[oci.RegistryVerifier](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve registry verifier dependency: %w", err)
	}

	return verifier, nil
}

// ResolvePublisher retrieves the image publisher.
func ResolvePublisher(injector Injector) (pipeline.Publisher, error) {
	publisher, err := do.Invoke[pipeline.Publisher](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve publisher dependency: %w", err)
	}

	return publisher, nil
}

// ResolveMaterializer retrieves the credential materializer.
func ResolveMaterializer(injector Injector) (*credentials.Materializer, error) {
	materializer, err := do.Invoke[*credentials.Materializer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials dependency: %w", err)
	}

	return materializer, nil
}

// ResolveClientsetFactory retrieves the Kubernetes client factory.
func ResolveClientsetFactory(injector Injector) (pipeline.ClientsetFactory, error) {
	factory, err := do.Invoke[pipeline.ClientsetFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve clientset factory dependency: %w", err)
	}

	return factory, nil
}
