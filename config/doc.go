// Package config loads and validates gateway configuration.
//
// It uses Viper and godotenv to merge YAML files, .env files, and
// environment variables. Each section struct follows the same convention:
// ApplyDefaults fills unset fields, Validate rejects bad values with the
// offending key in the message.
//
// # Usage
//
//	cfg, err := config.LoadGatewayConfig()
//
// Environment variables override file values. A variable carrying the
// upper-cased service prefix addresses a nested key, so
// ATTENDANT_SERVER_PORT sets server.port.
//
// Loading also runs the security checks: findings are logged, and critical
// findings in production abort the load unless security.allow_insecure is
// set.
package config
