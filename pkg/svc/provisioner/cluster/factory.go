package clusterprovisioner

import (
	"context"
	"fmt"

	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	awsprovider "github.com/devantler-tech/kci/pkg/svc/provider/aws"
	kopsprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/kops"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators a backend may need.
type Dependencies struct {
	Runner       runner.Runner
	Materializer *credentials.Materializer
	AWS          credentials.AWSCredentials
	Notifier     *notify.Notifier
	Logger       logrus.FieldLogger
	// Provider overrides the cloud provider built from AWS. Used in tests.
	Provider provider.Provider
}

// Factory creates the provisioner for a backend.
type Factory interface {
	Create(ctx context.Context, backend Backend, deps Dependencies) (ClusterProvisioner, error)
}

// DefaultFactory builds provisioners backed by real cloud SDK clients.
type DefaultFactory struct{}

// Create selects the provisioner for backend.
func (DefaultFactory) Create(ctx context.Context, backend Backend, deps Dependencies) (ClusterProvisioner, error) {
	switch backend {
	case BackendKopsAWS:
		return createKopsProvisioner(ctx, deps)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}

func createKopsProvisioner(ctx context.Context, deps Dependencies) (*kopsprovisioner.Provisioner, error) {
	infra := deps.Provider
	if infra == nil {
		var err error

		infra, err = awsprovider.NewProviderFromCredentials(ctx, deps.AWS.Region, awsprovider.StaticCredentials{
			AccessKeyID:     deps.AWS.AccessKeyID,
			SecretAccessKey: deps.AWS.SecretAccessKey,
		}, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("create aws provider: %w", err)
		}
	}

	opts := []kopsprovisioner.Option{
		kopsprovisioner.WithNotifier(deps.Notifier),
		kopsprovisioner.WithLogger(deps.Logger),
		kopsprovisioner.WithObserver(readiness.NewProgressObserver(deps.Notifier, deps.Logger)),
	}

	if deps.Materializer != nil {
		opts = append(opts, kopsprovisioner.WithCredentials(deps.Materializer, deps.AWS))
	}

	return kopsprovisioner.NewProvisioner(deps.Runner, infra, opts...), nil
}
