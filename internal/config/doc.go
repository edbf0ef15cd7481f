// Package config defines the application configuration structure and loading.
// Configuration comes from an optional config.yaml and STUDYDECK_-prefixed
// environment variables, with env taking precedence, and is validated before
// the application starts.
package config
