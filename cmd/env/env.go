package env

const (
	// Prefix is the prefix of every service env variable
	Prefix = "CDTRATES"

	// DBURLSuffix is the suffix of the DB connection string env variable
	DBURLSuffix = "_DB_URL"
)
