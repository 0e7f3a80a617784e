// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler sanitizes log output before it reaches the wrapped
// handler:
//   - attributes whose key names a secret (Cookie, Authorization,
//     Proxy-Authorization, tokens, passwords, session identifiers)
//   - values that look like credentials (bearer and basic auth, JWTs, AWS
//     access keys, PEM private keys) regardless of key
//   - userinfo and sensitive query parameters inside any URL found in the
//     message, a string attribute, or an error
//
// Crawl logs routinely carry request URLs and per-site headers loaded from the
// config file, so even in verbose mode these values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching",
//	    "url", "https://user:pw@example.com/?token=abc", // userinfo and token masked
//	    "cookie", "session=abc123",                     // masked
//	)
package log
