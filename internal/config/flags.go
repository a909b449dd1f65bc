package config

import (
	"flag"
	"os"

	"github.com/taxpilot/docvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-o string   blob backend ("s3" or "badger")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w string   badger blob directory
//	-k string   Kafka brokers (comma-separated; empty disables notifications)
//	-t string   Kafka topic for stored-file notifications
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-u", "-p", "-b", "-g", "-e", "-w", "-k", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "o", config.BlobBackend, "blob backend (s3 or badger)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.BadgerDir, "w", config.BadgerDir, "badger blob directory")
	fs.StringVar(&config.KafkaBrokers, "k", config.KafkaBrokers, "Kafka brokers, comma-separated")
	fs.StringVar(&config.KafkaTopic, "t", config.KafkaTopic, "Kafka topic for stored-file notifications")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
