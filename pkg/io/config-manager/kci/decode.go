package configmanager

import (
	"fmt"
	"reflect"

	"github.com/devantler-tech/kci/pkg/utils/envvar"
	mapstructure "github.com/go-viper/mapstructure/v2"
)

// flagValueSetter is implemented by enum types that satisfy pflag.Value.
type flagValueSetter interface {
	Set(value string) error
}

// setterDecodeHook decodes strings into enum types through their Set method,
// so values from env vars and kci.yaml get the same validation as flags.
func setterDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}

		target := reflect.New(to)

		setter, ok := target.Interface().(flagValueSetter)
		if !ok {
			return data, nil
		}

		raw, _ := data.(string)
		if raw == "" {
			return data, nil
		}

		err := setter.Set(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", to.Name(), err)
		}

		return target.Elem().Interface(), nil
	}
}

// expandEnvHook expands ${NAME} and ${NAME:-default} in string settings,
// so kci.yaml can reference secrets held in the CI environment.
func expandEnvHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}

		raw, ok := data.(string)
		if !ok {
			return data, nil
		}

		return envvar.Expand(raw), nil
	}
}
