package prepull

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/devantler-tech/kci/pkg/client/netretry"
	"github.com/devantler-tech/kci/pkg/k8s"
	"github.com/devantler-tech/kci/pkg/k8s/readiness"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/installer"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// DefaultNamespace holds the pull DaemonSet.
	DefaultNamespace = "kci-system"
	// DefaultName names the DaemonSet and its pods.
	DefaultName = "kci-image-prepull"
	// PollInterval is the delay between node inventory checks.
	PollInterval = 10 * time.Second
)

var (
	// ErrNoWorkerNodes is returned when the cluster has no node eligible for the image.
	ErrNoWorkerNodes = errors.New("no worker nodes to install the image on")
	// ErrSourceImageRequired is returned when no source image is given.
	ErrSourceImageRequired = errors.New("source image is required")
	// ErrTargetImageRequired is returned when no target image is given.
	ErrTargetImageRequired = errors.New("target image is required")
	// ErrImageMissing is wrapped by the last poll error while nodes still lack the image.
	ErrImageMissing = errors.New("image missing on nodes")
)

// controlPlaneLabels mark nodes the image is never placed on.
var controlPlaneLabels = []string{
	"node-role.kubernetes.io/control-plane",
	"node-role.kubernetes.io/master",
}

// Options describe what to place on the nodes.
type Options struct {
	// Source is the published image reference to pull.
	Source string
	// Target is the name the image is tagged with on every node.
	Target string
	// Namespace defaults to DefaultNamespace.
	Namespace string
	// Name defaults to DefaultName.
	Name string
	// Runtime defaults to RuntimeContainerd.
	Runtime ContainerRuntime
	// HelperImage defaults to the runtime's helper image.
	HelperImage string
	// Retries sets the wait timeout in installer.RetryWindow units.
	Retries int
	// Timeout overrides Retries when set.
	Timeout time.Duration
	// PollInterval defaults to PollInterval.
	PollInterval time.Duration
	// Login creates a pull secret when set.
	Login *credentials.RegistryLogin
}

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}

	if o.Name == "" {
		o.Name = DefaultName
	}

	if o.Runtime == "" {
		o.Runtime = RuntimeContainerd
	}

	if o.HelperImage == "" {
		o.HelperImage = ContainerdHelperImage()
		if o.Runtime == RuntimeDocker {
			o.HelperImage = DockerHelperImage()
		}
	}

	if o.PollInterval <= 0 {
		o.PollInterval = PollInterval
	}

	return o
}

func (o Options) pullSecretName() string {
	return o.Name + "-registry"
}

// Installer places the image on every worker node.
type Installer struct {
	clientset kubernetes.Interface
	opts      Options
	notifier  *notify.Notifier
	logger    logrus.FieldLogger
	observer  readiness.Observer
}

var _ installer.Installer = (*Installer)(nil)

// Option configures an Installer.
type Option func(*Installer)

// WithNotifier sets where progress is printed.
func WithNotifier(notifier *notify.Notifier) Option {
	return func(i *Installer) {
		i.notifier = notifier
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(i *Installer) {
		i.logger = logger
	}
}

// WithObserver reports poll attempts.
func WithObserver(observer readiness.Observer) Option {
	return func(i *Installer) {
		i.observer = observer
	}
}

// NewInstaller creates an image pre-pull installer.
func NewInstaller(clientset kubernetes.Interface, opts Options, options ...Option) *Installer {
	inst := &Installer{
		clientset: clientset,
		opts:      opts.withDefaults(),
	}

	for _, option := range options {
		option(inst)
	}

	if inst.notifier == nil {
		inst.notifier = notify.New(nil, nil)
	}

	if inst.logger == nil {
		inst.logger = logrus.StandardLogger()
	}

	return inst
}

// Install deploys the pull DaemonSet and waits until every worker node lists the target image.
// On timeout the DaemonSet is left running and the error names the nodes still missing it.
func (i *Installer) Install(ctx context.Context) error {
	source, target, err := i.references()
	if err != nil {
		return err
	}

	err = k8s.EnsurePrivilegedNamespace(ctx, i.clientset, i.opts.Namespace, map[string]string{
		managedByLabel: managedBy,
	})
	if err != nil {
		return fmt.Errorf("ensure namespace %s: %w", i.opts.Namespace, err)
	}

	if i.opts.Login != nil {
		err = i.ensurePullSecret(ctx)
		if err != nil {
			return err
		}
	}

	err = i.ensureDaemonSet(ctx, buildDaemonSet(i.opts, runtimeRef(source), runtimeRef(target)))
	if err != nil {
		return err
	}

	timeout := i.opts.Timeout
	if timeout <= 0 {
		timeout = installer.InstallTimeout(i.opts.Retries)
	}

	i.notifier.Activityf("waiting for %s on all worker nodes (timeout %s)", i.opts.Target, timeout)

	var nodes []string

	waitOpts := []readiness.Option{}
	if i.observer != nil {
		waitOpts = append(waitOpts, readiness.WithObserver(i.observer))
	}

	took, err := readiness.WaitFor(ctx, "image "+i.opts.Target+" on worker nodes", i.opts.PollInterval, timeout,
		func(ctx context.Context) (bool, error) {
			present, err := i.nodesWithImage(ctx, target)
			nodes = present

			return err == nil, err
		}, waitOpts...)
	if err != nil {
		return fmt.Errorf("install image %s: %w", i.opts.Target, err)
	}

	i.notifier.Successf("image %s present on %d worker nodes after %s", i.opts.Target, len(nodes), took.Round(time.Second))

	return nil
}

// Uninstall deletes the DaemonSet and pull secret. The namespace is kept.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.clientset.AppsV1().DaemonSets(i.opts.Namespace).Delete(ctx, i.opts.Name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete daemonset %s: %w", i.opts.Name, err)
	}

	err = i.clientset.CoreV1().Secrets(i.opts.Namespace).Delete(ctx, i.opts.pullSecretName(), metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete secret %s: %w", i.opts.pullSecretName(), err)
	}

	return nil
}

// Images returns the helper image and the source image.
func (i *Installer) Images(_ context.Context) ([]string, error) {
	if i.opts.Source == "" {
		return nil, ErrSourceImageRequired
	}

	return []string{i.opts.HelperImage, i.opts.Source}, nil
}

// Namespace returns the namespace the DaemonSet runs in.
func (i *Installer) Namespace() string {
	return i.opts.Namespace
}

func (i *Installer) references() (name.Reference, name.Reference, error) {
	if i.opts.Source == "" {
		return nil, nil, ErrSourceImageRequired
	}

	if i.opts.Target == "" {
		return nil, nil, ErrTargetImageRequired
	}

	source, err := name.ParseReference(i.opts.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("parse source image %q: %w", i.opts.Source, err)
	}

	target, err := name.ParseReference(i.opts.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("parse target image %q: %w", i.opts.Target, err)
	}

	return source, target, nil
}

func (i *Installer) ensurePullSecret(ctx context.Context) error {
	secret, err := buildPullSecret(i.opts.Namespace, i.opts.pullSecretName(), *i.opts.Login)
	if err != nil {
		return err
	}

	secrets := i.clientset.CoreV1().Secrets(i.opts.Namespace)

	existing, err := secrets.Get(ctx, secret.Name, metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return fmt.Errorf("get secret %s: %w", secret.Name, err)
		}

		_, err = secrets.Create(ctx, secret, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("create secret %s: %w", secret.Name, err)
		}

		return nil
	}

	existing.Type = secret.Type
	existing.Data = secret.Data

	_, err = secrets.Update(ctx, existing, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("update secret %s: %w", secret.Name, err)
	}

	return nil
}

func (i *Installer) ensureDaemonSet(ctx context.Context, daemonSet *appsv1.DaemonSet) error {
	daemonSets := i.clientset.AppsV1().DaemonSets(i.opts.Namespace)

	existing, err := daemonSets.Get(ctx, daemonSet.Name, metav1.GetOptions{})
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return fmt.Errorf("get daemonset %s: %w", daemonSet.Name, err)
		}

		_, err = daemonSets.Create(ctx, daemonSet, metav1.CreateOptions{})
		if err != nil {
			return fmt.Errorf("create daemonset %s: %w", daemonSet.Name, err)
		}

		i.logger.WithField("daemonset", daemonSet.Name).Debug("daemonset created")

		return nil
	}

	existing.Labels = daemonSet.Labels
	existing.Spec.Template = daemonSet.Spec.Template

	_, err = daemonSets.Update(ctx, existing, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("update daemonset %s: %w", daemonSet.Name, err)
	}

	i.logger.WithField("daemonset", daemonSet.Name).Debug("daemonset updated")

	return nil
}

// nodesWithImage lists worker nodes and reports the target image's presence.
// It returns the worker names once all of them have the image.
func (i *Installer) nodesWithImage(ctx context.Context, target name.Reference) ([]string, error) {
	nodeList, err := i.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		if netretry.IsRetryable(err) {
			return nil, readiness.NotReady(fmt.Errorf("list nodes: %w", err))
		}

		return nil, fmt.Errorf("list nodes: %w", err)
	}

	var workers, missing []string

	for idx := range nodeList.Items {
		node := &nodeList.Items[idx]
		if IsControlPlane(node) {
			continue
		}

		workers = append(workers, node.Name)

		if !HasImage(node, target) {
			missing = append(missing, node.Name)
		}
	}

	if len(workers) == 0 {
		return nil, ErrNoWorkerNodes
	}

	if len(missing) > 0 {
		slices.Sort(missing)

		i.logger.WithFields(logrus.Fields{
			"image":   target.Name(),
			"missing": missing,
			"workers": len(workers),
		}).Debug("image not on all nodes yet")

		return nil, readiness.NotReady(fmt.Errorf("%w: %d/%d nodes still missing %s: %s",
			ErrImageMissing, len(missing), len(workers), target.Name(), strings.Join(missing, ", ")))
	}

	return workers, nil
}

// IsControlPlane reports whether node carries a control-plane role label.
func IsControlPlane(node *corev1.Node) bool {
	for _, label := range controlPlaneLabels {
		if _, ok := node.Labels[label]; ok {
			return true
		}
	}

	return false
}

// HasImage reports whether any of node's image names resolves to ref.
// Names are compared after normalization, so "nginx:1.25" matches
// "docker.io/library/nginx:1.25".
func HasImage(node *corev1.Node, ref name.Reference) bool {
	want := ref.Name()

	for _, image := range node.Status.Images {
		for _, imageName := range image.Names {
			parsed, err := name.ParseReference(imageName)
			if err != nil {
				continue
			}

			if parsed.Name() == want {
				return true
			}
		}
	}

	return false
}

// runtimeRef renders ref fully qualified the way container runtimes name images.
// ggcr spells Docker Hub "index.docker.io" while containerd and docker use "docker.io".
func runtimeRef(ref name.Reference) string {
	full := ref.Name()
	if rest, ok := strings.CutPrefix(full, name.DefaultRegistry+"/"); ok {
		return "docker.io/" + rest
	}

	return full
}
