package kopsprovisioner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/devantler-tech/kci/pkg/cmd/runner"
	"github.com/devantler-tech/kci/pkg/k8s"
	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/svc/provider"
	clustererrors "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/errors"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
)

// DefaultBinary is the kops executable looked up on PATH.
const DefaultBinary = "kops"

// Provisioner creates kops clusters on AWS.
type Provisioner struct {
	binary       string
	runner       runner.Runner
	provider     provider.Provider
	materializer *credentials.Materializer
	awsCreds     credentials.AWSCredentials
	notifier     *notify.Notifier
	logger       logrus.FieldLogger
	observer     readiness.Observer
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithBinary overrides the kops executable.
func WithBinary(binary string) Option {
	return func(p *Provisioner) {
		p.binary = binary
	}
}

// WithCredentials makes Provision write the SSH key pair and AWS files before
// calling kops. Existing files are kept.
func WithCredentials(materializer *credentials.Materializer, awsCreds credentials.AWSCredentials) Option {
	return func(p *Provisioner) {
		p.materializer = materializer
		p.awsCreds = awsCreds
	}
}

// WithNotifier sets where progress is printed.
func WithNotifier(notifier *notify.Notifier) Option {
	return func(p *Provisioner) {
		p.notifier = notifier
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithObserver reports validation attempts.
func WithObserver(observer readiness.Observer) Option {
	return func(p *Provisioner) {
		p.observer = observer
	}
}

// NewProvisioner creates a kops provisioner.
func NewProvisioner(cmdRunner runner.Runner, infraProvider provider.Provider, opts ...Option) *Provisioner {
	p := &Provisioner{
		binary:   DefaultBinary,
		runner:   cmdRunner,
		provider: infraProvider,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.notifier == nil {
		p.notifier = notify.New(nil, nil)
	}

	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}

	return p
}

// Provision runs the full kops protocol: credentials, state bucket, zone selection,
// create, export kubeconfig and validate. Each created resource is tracked on lc
// before the next step starts, so a failure at any point leaves a complete
// cleanup list behind.
func (p *Provisioner) Provision(
	ctx context.Context,
	desc types.Descriptor,
	lc *lifecycle.Lifecycle,
) (*types.Cluster, error) {
	desc = desc.WithDefaults()

	err := p.validate(desc)
	if err != nil {
		return nil, err
	}

	if p.materializer != nil {
		err = p.ensureCredentials(&desc)
		if err != nil {
			return nil, err
		}
	}

	store, err := p.createStateStore(ctx, desc, lc)
	if err != nil {
		return nil, err
	}

	zones, err := p.selectZones(ctx, desc)
	if err != nil {
		return nil, err
	}

	placement := NodesPerZone(zones, desc.NodeCount)
	p.notifier.Infof("zones %s, workers per zone %s", strings.Join(zones, ","), formatPlacement(zones, placement))

	err = p.createCluster(ctx, desc, store, zones, lc)
	if err != nil {
		return nil, err
	}

	took, err := p.exportAndValidate(ctx, desc, store)
	if err != nil {
		return nil, err
	}

	apiServer, err := k8s.APIServerURL(desc.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("read exported kubeconfig: %w", err)
	}

	p.notifier.Successf("cluster %s validated in %s", desc.Name, took.Round(time.Second))

	return &types.Cluster{
		Name:        desc.Name,
		StateStore:  store.URL(),
		APIServer:   apiServer,
		Kubeconfig:  desc.Kubeconfig,
		Zones:       zones,
		Placement:   placement,
		ValidatedIn: took,
	}, nil
}

// Delete deletes the cluster. A cluster kops cannot find yields ErrClusterNotFound.
func (p *Provisioner) Delete(ctx context.Context, desc types.Descriptor) error {
	store := provider.StateStore{Bucket: desc.StateBucket}

	_, err := p.kops(ctx, desc, "delete", "cluster", "--name", desc.Name, "--state", store.URL(), "--yes")
	if err != nil {
		var execErr *runner.ExecutionError
		if errors.As(err, &execErr) && strings.Contains(string(execErr.Stderr), "not found") {
			return fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, desc.Name)
		}

		return fmt.Errorf("delete cluster %s: %w", desc.Name, err)
	}

	return nil
}

func (p *Provisioner) validate(desc types.Descriptor) error {
	var missing []string

	if p.provider == nil {
		return clustererrors.ErrProviderNotSet
	}

	if desc.Name == "" {
		missing = append(missing, "name")
	}

	if desc.StateBucket == "" {
		missing = append(missing, "state bucket")
	}

	if desc.Kubeconfig == "" {
		missing = append(missing, "kubeconfig")
	}

	if desc.SSHPublicKey == "" && p.materializer == nil {
		missing = append(missing, "ssh public key")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", clustererrors.ErrInvalidDescriptor, strings.Join(missing, ", "))
	}

	return nil
}

func (p *Provisioner) ensureCredentials(desc *types.Descriptor) error {
	pubKey, created, err := p.materializer.EnsureSSHKeyPair()
	if err != nil {
		return fmt.Errorf("ssh key pair: %w", err)
	}

	if created {
		p.notifier.Activityf("generated ssh key pair %s", pubKey)
	}

	if desc.SSHPublicKey == "" {
		desc.SSHPublicKey = pubKey
	}

	creds := p.awsCreds
	if creds.Region == "" {
		creds.Region = desc.Region
	}

	_, err = p.materializer.EnsureAWSFiles(creds)
	if err != nil {
		return fmt.Errorf("aws credential files: %w", err)
	}

	return nil
}

func (p *Provisioner) createStateStore(
	ctx context.Context,
	desc types.Descriptor,
	lc *lifecycle.Lifecycle,
) (provider.StateStore, error) {
	p.notifier.Activityf("creating state bucket %s", desc.StateBucket)

	store, err := p.provider.CreateStateStore(ctx, desc.StateBucket)
	if err != nil {
		return provider.StateStore{}, fmt.Errorf("create state store: %w", err)
	}

	if !store.Created {
		p.notifier.Infof("state bucket %s already exists and is kept", store.Bucket)

		return store, nil
	}

	err = lc.Track(lifecycle.Action{
		Name: "state bucket " + store.Bucket,
		Run: func(ctx context.Context) error {
			return p.provider.DeleteStateStore(ctx, store.Bucket)
		},
		ManualCleanup: "aws s3 rb " + store.URL() + " --force",
	})
	if err != nil {
		return provider.StateStore{}, fmt.Errorf("track state bucket: %w", err)
	}

	return store, nil
}

func (p *Provisioner) selectZones(ctx context.Context, desc types.Descriptor) ([]string, error) {
	available, err := p.provider.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}

	zones, err := SelectZones(available, desc.ZoneCount)
	if err != nil {
		return nil, fmt.Errorf("%w in region %s", err, p.provider.Region())
	}

	return zones, nil
}

// createCluster runs "kops create cluster" and tracks the delete action whether or
// not create succeeded, since a failed create can leave cloud resources behind.
func (p *Provisioner) createCluster(
	ctx context.Context,
	desc types.Descriptor,
	store provider.StateStore,
	zones []string,
	lc *lifecycle.Lifecycle,
) error {
	p.notifier.Activityf("creating cluster %s", desc.Name)

	_, createErr := p.kops(ctx, desc, CreateClusterArgs(desc, store.URL(), zones)...)

	trackErr := lc.Track(lifecycle.Action{
		Name: "kops cluster " + desc.Name,
		Run: func(ctx context.Context) error {
			err := p.Delete(ctx, desc)
			if errors.Is(err, clustererrors.ErrClusterNotFound) {
				return nil
			}

			return err
		},
		ManualCleanup: fmt.Sprintf("kops delete cluster --name %s --state %s --yes", desc.Name, store.URL()),
	})

	if createErr != nil {
		return errors.Join(fmt.Errorf("create cluster %s: %w", desc.Name, createErr), trackErr)
	}

	if trackErr != nil {
		return fmt.Errorf("track cluster: %w", trackErr)
	}

	return nil
}

func (p *Provisioner) exportAndValidate(
	ctx context.Context,
	desc types.Descriptor,
	store provider.StateStore,
) (time.Duration, error) {
	_, err := p.kops(ctx, desc,
		"export", "kubecfg",
		"--name", desc.Name,
		"--state", store.URL(),
		"--admin",
		"--kubeconfig", desc.Kubeconfig,
	)
	if err != nil {
		return 0, fmt.Errorf("export kubeconfig: %w", err)
	}

	p.notifier.Activityf("waiting for cluster %s to validate (timeout %s)", desc.Name, desc.ValidateTimeout)

	opts := []readiness.Option{}
	if p.observer != nil {
		opts = append(opts, readiness.WithObserver(p.observer))
	}

	took, err := readiness.WaitFor(ctx, "kops validate cluster "+desc.Name, desc.ValidateInterval, desc.ValidateTimeout,
		func(ctx context.Context) (bool, error) {
			_, err := p.kops(ctx, desc,
				"validate", "cluster",
				"--name", desc.Name,
				"--state", store.URL(),
				"--kubeconfig", desc.Kubeconfig,
			)
			if err != nil {
				var execErr *runner.ExecutionError
				if errors.As(err, &execErr) {
					return false, readiness.NotReady(err)
				}

				return false, err
			}

			return true, nil
		}, opts...)
	if err != nil {
		return took, fmt.Errorf("validate cluster: %w", err)
	}

	return took, nil
}

func (p *Provisioner) kops(ctx context.Context, desc types.Descriptor, args ...string) (runner.CommandResult, error) {
	return p.runner.Run(ctx, runner.Invocation{
		Args: append([]string{p.binary}, args...),
		Env:  desc.Env,
	})
}

// CreateClusterArgs returns the "kops create cluster" arguments for desc.
// The control plane runs in the first zone.
func CreateClusterArgs(desc types.Descriptor, stateStore string, zones []string) []string {
	args := []string{
		"create", "cluster",
		"--name", desc.Name,
		"--state", stateStore,
		"--cloud", "aws",
		"--zones", strings.Join(zones, ","),
		"--control-plane-zones", zones[0],
		"--node-count", strconv.Itoa(desc.NodeCount),
		"--node-size", desc.NodeSize,
		"--control-plane-size", desc.ControlPlaneSize,
		"--ssh-public-key", desc.SSHPublicKey,
	}

	if desc.KubernetesVersion != "" {
		args = append(args, "--kubernetes-version", desc.KubernetesVersion)
	}

	if desc.DNSZone != "" {
		args = append(args, "--dns-zone", desc.DNSZone)
	}

	return append(args, "--yes")
}

func formatPlacement(zones []string, placement map[string]int) string {
	parts := make([]string, 0, len(zones))

	for _, zone := range zones {
		parts = append(parts, zone+"="+strconv.Itoa(placement[zone]))
	}

	return strings.Join(parts, ",")
}
