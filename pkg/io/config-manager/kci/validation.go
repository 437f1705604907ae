package configmanager

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/devantler-tech/kci/pkg/k8s"
	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
)

// validatorInstance configures and returns the shared validator.
// Field names are reported by their flag names.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return field.Name
			}

			return name
		})

		_ = v.RegisterValidation("s3_bucket", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()

			return bucketPattern.MatchString(value) && !strings.Contains(value, "..")
		})

		validateInst = v
	})

	return validateInst
}

// validate checks cfg and returns a *ConfigurationError listing every problem.
func validate(cfg *Config) error {
	var configErr ConfigurationError

	err := validatorInstance().Struct(cfg)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate configuration: %w", err)
		}

		for _, fieldErr := range fieldErrs {
			if fieldErr.Tag() == "required" {
				configErr.Missing = append(configErr.Missing, fieldErr.Field())

				continue
			}

			configErr.Invalid = append(configErr.Invalid, describe(fieldErr))
		}
	}

	if !cfg.Backend.IsValid() && cfg.Backend != "" {
		configErr.Invalid = append(configErr.Invalid, fmt.Sprintf("--backend %q is not supported", cfg.Backend))
	}

	if !cfg.ContainerRuntime.IsValid() && cfg.ContainerRuntime != "" {
		configErr.Invalid = append(configErr.Invalid,
			fmt.Sprintf("--container-runtime %q is not supported", cfg.ContainerRuntime))
	}

	// kops resolves names outside the gossip domain through Route 53.
	if cfg.ClusterName != "" && cfg.DNSZone == "" && !strings.HasSuffix(cfg.ClusterName, "."+k8s.GossipDomain) {
		configErr.Invalid = append(configErr.Invalid, fmt.Sprintf(
			"--cluster-name %q must end in .%s unless --dns-zone is set", cfg.ClusterName, k8s.GossipDomain))
	}

	if len(configErr.Missing) == 0 && len(configErr.Invalid) == 0 {
		return nil
	}

	return &configErr
}

func describe(fieldErr validator.FieldError) string {
	flag := "--" + fieldErr.Field()

	switch fieldErr.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s", flag, fieldErr.Param())
	case "hostname_rfc1123":
		return fmt.Sprintf("%s %q is not a valid DNS name", flag, fieldErr.Value())
	case "s3_bucket":
		return fmt.Sprintf("%s %q is not a valid S3 bucket name", flag, fieldErr.Value())
	default:
		return fmt.Sprintf("%s failed validation for tag '%s'", flag, fieldErr.Tag())
	}
}
