// Package microsoft provides the Microsoft identity platform and Graph API
// adapters.
//
// This package provides:
//   - Device-code grant support (RFC 8628) against the Microsoft identity
//     platform: initiation, token polling and refresh
//   - Profile lookup used to resolve the authenticated account identifier
//   - An authenticated HTTP client for Microsoft Graph requests
//   - Rate limiting and error handling for Graph API responses
//
// # Device-Code Flow
//
// Endpoints are tenant-scoped:
//   - Device code: https://login.microsoftonline.com/{tenant}/oauth2/v2.0/devicecode
//   - Token:       https://login.microsoftonline.com/{tenant}/oauth2/v2.0/token
//
// The "consumers" tenant serves personal Microsoft accounts; organisational
// accounts use their directory tenant or "common". The "offline_access"
// scope is required for refresh tokens.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per
// app. This package implements conservative rate limiting to avoid hitting
// quotas.
package microsoft
