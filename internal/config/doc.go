// Package config provides configuration management for serpscan.
// It defines the Config struct holding all runtime options, documented
// defaults as package constants, validation with sentinel errors, and
// loading of the optional .serpscan YAML file.
package config
