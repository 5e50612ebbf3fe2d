package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// TAXII media types
	ContentTypeTAXII = "application/taxii+json;version=2.1"
	ContentTypeSTIX  = "application/stix+json;version=2.1"
	ContentTypeJSON  = "application/json"

	// TAXII response headers
	HeaderDateAddedFirst = "X-TAXII-Date-Added-First"
	HeaderDateAddedLast  = "X-TAXII-Date-Added-Last"

	// Database table names
	TableOrganizations       = "organizations"
	TableTrustLevels         = "trust_levels"
	TableTrustRelationships  = "trust_relationships"
	TableTrustGroups         = "trust_groups"
	TableTrustGroupMembers   = "trust_group_members"
	TableFeedSources         = "feed_sources"
	TableFeedConsumptionLogs = "feed_consumption_logs"
	TableStixObjects         = "stix_objects"
)
