package config

type Config interface {
	EnvConfig
	CorsConfig
	SSOConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAppURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	SSO
	SessionVars
}

func New() Config {
	return mainConfig{}
}
