package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "gearvault"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	AssistantEngineRules = "rules"
	AssistantEngineModel = "model"

	EnvDBDSN  = "GEARVAULT_DB_DSN"
	EnvDBHost = "GEARVAULT_DB_HOST"
	EnvDBUser = "GEARVAULT_DB_USER"
	EnvDBName = "GEARVAULT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
