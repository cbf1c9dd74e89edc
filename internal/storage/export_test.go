package storage

var (
	BuildMySQLDSN    = buildMySQLDSN
	BuildPostgresDSN = buildPostgresDSN
	BuildMongoURI    = buildMongoURI
)
