package config

// EnvPrefix is intentionally empty: every variable carries the full
// DARNA_ prefix in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "DARNA_DB_DSN"
	EnvDBHost = "DARNA_DB_HOST"
	EnvDBUser = "DARNA_DB_USER"
	EnvDBName = "DARNA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
