package credentials

import (
	"fmt"
	"io"

	"gopkg.in/ini.v1"
)

const awsProfile = "default"

// AWSCredentials is the access key pair and region written to the shared AWS files.
type AWSCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// EnsureAWSFiles writes the shared credentials and config files if they are absent.
// It reports whether either file was written.
func (m *Materializer) EnsureAWSFiles(creds AWSCredentials) (bool, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return false, ErrMissingAWSCredentials
	}

	credsFile := ini.Empty()
	section := credsFile.Section(awsProfile)
	section.Key("aws_access_key_id").SetValue(creds.AccessKeyID)
	section.Key("aws_secret_access_key").SetValue(creds.SecretAccessKey)

	wroteCreds, err := writeINIIfAbsent(m.paths.AWSCredentials, credsFile)
	if err != nil {
		return false, err
	}

	m.debug(m.paths.AWSCredentials, wroteCreds)

	configFile := ini.Empty()
	section = configFile.Section(awsProfile)
	section.Key("output").SetValue("json")

	if creds.Region != "" {
		section.Key("region").SetValue(creds.Region)
	}

	wroteConfig, err := writeINIIfAbsent(m.paths.AWSConfig, configFile)
	if err != nil {
		return wroteCreds, err
	}

	m.debug(m.paths.AWSConfig, wroteConfig)

	return wroteCreds || wroteConfig, nil
}

func writeINIIfAbsent(path string, file *ini.File) (bool, error) {
	found, err := exists(path)
	if err != nil || found {
		return false, err
	}

	err = createExclusive(path, fileMode, func(w io.Writer) error {
		_, err := file.WriteTo(w)

		return err
	})
	if err != nil {
		return false, fmt.Errorf("write aws file: %w", err)
	}

	return true, nil
}
