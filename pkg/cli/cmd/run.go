package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devantler-tech/kci/pkg/di"
	configmanagerinterface "github.com/devantler-tech/kci/pkg/io/config-manager"
	configmanager "github.com/devantler-tech/kci/pkg/io/config-manager/kci"
	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/devantler-tech/kci/pkg/svc/lifecycle"
	"github.com/devantler-tech/kci/pkg/svc/pipeline"
	clusterprovisioner "github.com/devantler-tech/kci/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/kci/pkg/svc/provisioner/cluster/types"
	"github.com/devantler-tech/kci/pkg/utils/debuglog"
	"github.com/devantler-tech/kci/pkg/utils/notify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func handleRunE(cmd *cobra.Command, runtimeContainer *di.Runtime, manager *configmanager.ConfigManager) error {
	manager.Writer = cmd.OutOrStdout()

	cfg, err := manager.Load(configmanagerinterface.LoadOptions{})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	debugLog, err := debuglog.Open(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}

	defer func() { _ = debugLog.Close() }()

	debugLog.WithFields(logrus.Fields{
		"version": cmd.Version,
		"backend": cfg.Backend.String(),
		"cluster": cfg.ClusterName,
		"bucket":  cfg.StateBucket,
	}).Info("kci run started")

	notifier := notify.New(cmd.OutOrStdout(), debugLog)
	notifier.Infof("debug log: %s", debugLog.Path())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runtimeContainer.Invoke(func(injector di.Injector) error {
		return runPipeline(ctx, injector, cfg, stop)
	}, di.WithConfig(cfg), di.WithLogger(debugLog), di.WithNotifier(notifier))
}

//nolint:nonamedreturns // the deferred cleanup joins its error into the result.
func runPipeline(
	ctx context.Context,
	injector di.Injector,
	cfg *configmanager.Config,
	releaseSignals func(),
) (err error) {
	notifier, err := di.ResolveNotifier(injector)
	if err != nil {
		return err
	}

	logger, err := di.ResolveLogger(injector)
	if err != nil {
		return err
	}

	lc := lifecycle.New(
		lifecycle.WithKeepResources(cfg.NoCleanup),
		lifecycle.WithNotifier(notifier),
		lifecycle.WithLogger(logger),
	)

	defer func() {
		cleanupErr := runCleanup(ctx, lc, notifier, releaseSignals)
		if cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
	}()

	deps, err := pipelineDeps(ctx, injector, cfg, notifier, logger)
	if err != nil {
		return err
	}

	report, err := pipeline.New(deps, NewPipelineConfig(cfg)).Run(ctx, lc)
	if err != nil {
		logger.WithError(err).Error("pipeline failed")

		return err
	}

	notifier.Successf("%s passed on cluster %s", report.TargetImage, report.Cluster.Name)

	return nil
}

// runCleanup restores default signal handling first, so a second interrupt
// during a long teardown terminates the process.
func runCleanup(ctx context.Context, lc *lifecycle.Lifecycle, notifier *notify.Notifier, releaseSignals func()) error {
	if releaseSignals != nil {
		releaseSignals()
	}

	if lc.Len() > 0 {
		notifier.Titlef("🧹", "Clean up")
	}

	return lc.RunAll(ctx)
}

func pipelineDeps(
	ctx context.Context,
	injector di.Injector,
	cfg *configmanager.Config,
	notifier *notify.Notifier,
	logger logrus.FieldLogger,
) (pipeline.Deps, error) {
	cmdRunner, err := di.ResolveRunner(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	materializer, err := di.ResolveMaterializer(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	factory, err := di.ResolveClusterProvisionerFactory(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	provisioner, err := factory.Create(ctx, cfg.Backend, clusterprovisioner.Dependencies{
		Runner:       cmdRunner,
		Materializer: materializer,
		AWS:          awsCredentials(cfg),
		Notifier:     notifier,
		Logger:       logger,
	})
	if err != nil {
		return pipeline.Deps{}, fmt.Errorf("create %s provisioner: %w", cfg.Backend, err)
	}

	publisher, err := di.ResolvePublisher(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	clientsets, err := di.ResolveClientsetFactory(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	testRunner, err := di.ResolveTestRunner(injector)
	if err != nil {
		return pipeline.Deps{}, err
	}

	return pipeline.Deps{
		Materializer: materializer,
		Publisher:    publisher,
		Provisioner:  provisioner,
		NewClientset: clientsets,
		TestRunner:   testRunner,
		Notifier:     notifier,
		Logger:       logger,
	}, nil
}

func awsCredentials(cfg *configmanager.Config) credentials.AWSCredentials {
	return credentials.AWSCredentials{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.Region,
	}
}

// NewPipelineConfig maps the command line configuration to a pipeline run.
func NewPipelineConfig(cfg *configmanager.Config) pipeline.Config {
	return pipeline.Config{
		Home:            cfg.Home,
		SourceDir:       cfg.SourceDir,
		Dockerfile:      cfg.Dockerfile,
		Registry:        cfg.Registry,
		ImageRepository: cfg.ImageRepository,
		ImageTag:        cfg.ImageTag,
		TargetImage:     cfg.TargetImage,
		Login: credentials.RegistryLogin{
			Registry: cfg.Registry,
			Username: cfg.RegistryUsername,
			Password: cfg.RegistryPassword,
		},
		AWS: awsCredentials(cfg),
		Cluster: types.Descriptor{
			Name:              cfg.ClusterName,
			StateBucket:       cfg.StateBucket,
			Region:            cfg.Region,
			NodeCount:         cfg.NodeCount,
			ZoneCount:         cfg.ZoneCount,
			NodeSize:          cfg.NodeSize,
			ControlPlaneSize:  cfg.ControlPlaneSize,
			KubernetesVersion: cfg.KubernetesVersion,
			DNSZone:           cfg.DNSZone,
			ValidateTimeout:   cfg.ProvisionTimeout,
		},
		Runtime:        cfg.ContainerRuntime,
		InstallRetries: cfg.InstallRetries,
		TestCommand:    cfg.TestCommand,
	}
}
