package config

import (
	"encoding/json"
	"os"

	"github.com/taxpilot/docvault/internal/flagx"
)

// JsonConfig mirrors Config for JSON unmarshalling. It is an intermediate
// DTO: after unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN    string `json:"database_dsn"`
	BlobBackend    string `json:"blob_backend"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	BadgerDir      string `json:"badger_dir"`
	KafkaBrokers   string `json:"kafka_brokers"`
	KafkaTopic     string `json:"kafka_topic"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any. An unreadable or invalid file panics: a
// half-applied config is worse than refusing to start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.BlobBackend = c.BlobBackend
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.BadgerDir = c.BadgerDir
	config.KafkaBrokers = c.KafkaBrokers
	config.KafkaTopic = c.KafkaTopic
}
