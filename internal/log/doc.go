// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (credentials, cookies, tokens)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - The solving service credential under any of its spellings (api_key, client_key)
//   - Challenge response tokens, which appear as long base64url blobs
//   - Session identifiers and passwords
//
// Public values stay visible. In particular the challenge sitekey, which is
// embedded in page markup and needed to debug detection, is never masked.
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("solver task created",
//	    "api_key", "1abc2def3ghi",  // Will be sanitized to "***REDACTED***"
//	    "url", "https://www.google.com/search?q=example",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
