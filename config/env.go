package config

// Environment variables required by the service. Secrets (the private key in
// particular) are expected to be provided out-of-band; a local .env file is
// supported for development.

type EnvVariables struct {
	GithubAppId                    string `env:"GITHUB_APP_ID"`
	GithubAppPrivateKey            string `env:"GITHUB_APP_PRIVATE_KEY"`
	GithubAppDefaultInstallationId string `env:"GITHUB_APP_DEFAULT_INSTALLATION_ID"`
	SentryDsn                      string `env:"SENTRY_DSN"`
	DatabaseUrl                    string `env:"DATABASE_URL"`
	Port                           string `env:"PORT"`
}
