package prepull

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/devantler-tech/kci/pkg/svc/credentials"
	"github.com/docker/cli/cli/config/configfile"
	"github.com/docker/cli/cli/config/types"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	appLabel        = "app.kubernetes.io/name"
	managedByLabel  = "app.kubernetes.io/managed-by"
	managedBy       = "kci"
	containerName   = "prepull"
	dockerSocket    = "/var/run/docker.sock"
	dockerConfigDir = "/root/.docker"
	usernameKey     = "username"
	passwordKey     = "password"
)

func labels(name string) map[string]string {
	return map[string]string{
		appLabel:       name,
		managedByLabel: managedBy,
	}
}

// buildPullSecret renders a kubernetes.io/dockerconfigjson secret. The raw
// username and password keys feed ctr, which cannot read docker config files.
func buildPullSecret(namespace, name string, login credentials.RegistryLogin) (*corev1.Secret, error) {
	cfg := configfile.New("")
	cfg.AuthConfigs[login.AuthKey()] = types.AuthConfig{
		Username: login.Username,
		Password: login.Password,
	}

	var buf bytes.Buffer

	err := cfg.SaveToWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("render docker config: %w", err)
	}

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{managedByLabel: managedBy},
		},
		Type: corev1.SecretTypeDockerConfigJson,
		Data: map[string][]byte{
			corev1.DockerConfigJsonKey: buf.Bytes(),
			usernameKey:                []byte(login.Username),
			passwordKey:                []byte(login.Password),
		},
	}, nil
}

// pullScript returns the shell script the DaemonSet container runs.
func pullScript(runtime ContainerRuntime, source, target string) string {
	var script strings.Builder

	script.WriteString("set -e\n")

	switch runtime {
	case RuntimeDocker:
		fmt.Fprintf(&script, "docker pull %s\n", source)
		fmt.Fprintf(&script, "docker tag %s %s\n", source, target)
	case RuntimeContainerd:
		const ctr = "nsenter -t 1 -m -- ctr -n k8s.io images"

		fmt.Fprintf(&script,
			"%s pull ${REGISTRY_USERNAME:+--user \"$REGISTRY_USERNAME:$REGISTRY_PASSWORD\"} %s\n",
			ctr, source)
		fmt.Fprintf(&script, "%s tag --force %s %s\n", ctr, source, target)
	}

	script.WriteString("while true; do sleep 3600; done\n")

	return script.String()
}

// buildDaemonSet renders the privileged pull DaemonSet. It carries no
// tolerations, so control-plane nodes are skipped by the scheduler.
func buildDaemonSet(opts Options, source, target string) *appsv1.DaemonSet {
	selector := labels(opts.Name)

	container := corev1.Container{
		Name:    containerName,
		Image:   opts.HelperImage,
		Command: []string{"/bin/sh", "-c", pullScript(opts.Runtime, source, target)},
		SecurityContext: &corev1.SecurityContext{
			Privileged: ptr.To(true),
		},
	}

	spec := corev1.PodSpec{
		TerminationGracePeriodSeconds: ptr.To[int64](0),
		Containers:                    []corev1.Container{container},
	}

	if opts.Login != nil {
		spec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: opts.pullSecretName()}}
	}

	switch opts.Runtime {
	case RuntimeDocker:
		mountDockerSocket(&spec, opts)
	case RuntimeContainerd:
		spec.HostPID = true
		addRegistryEnv(&spec, opts)
	}

	return &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels:    selector,
		},
		Spec: appsv1.DaemonSetSpec{
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: selector},
				Spec:       spec,
			},
		},
	}
}

func mountDockerSocket(spec *corev1.PodSpec, opts Options) {
	spec.Volumes = append(spec.Volumes, corev1.Volume{
		Name: "docker-socket",
		VolumeSource: corev1.VolumeSource{
			HostPath: &corev1.HostPathVolumeSource{
				Path: dockerSocket,
				Type: ptr.To(corev1.HostPathSocket),
			},
		},
	})

	container := &spec.Containers[0]
	container.VolumeMounts = append(container.VolumeMounts, corev1.VolumeMount{
		Name:      "docker-socket",
		MountPath: dockerSocket,
	})

	if opts.Login == nil {
		return
	}

	spec.Volumes = append(spec.Volumes, corev1.Volume{
		Name: "docker-config",
		VolumeSource: corev1.VolumeSource{
			Secret: &corev1.SecretVolumeSource{
				SecretName: opts.pullSecretName(),
				Items: []corev1.KeyToPath{{
					Key:  corev1.DockerConfigJsonKey,
					Path: "config.json",
				}},
			},
		},
	})

	container.VolumeMounts = append(container.VolumeMounts, corev1.VolumeMount{
		Name:      "docker-config",
		MountPath: dockerConfigDir,
		ReadOnly:  true,
	})
}

func addRegistryEnv(spec *corev1.PodSpec, opts Options) {
	if opts.Login == nil {
		return
	}

	secretEnv := func(env, key string) corev1.EnvVar {
		return corev1.EnvVar{
			Name: env,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: opts.pullSecretName()},
					Key:                  key,
				},
			},
		}
	}

	container := &spec.Containers[0]
	container.Env = append(container.Env,
		secretEnv("REGISTRY_USERNAME", usernameKey),
		secretEnv("REGISTRY_PASSWORD", passwordKey),
	)
}
