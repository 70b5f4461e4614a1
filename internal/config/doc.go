// Package config loads the relay configuration.
//
// Configuration is assembled in layers, each overriding the previous one:
//
//  1. built-in defaults (see GetDefaultConfig)
//  2. config.yaml in the configuration directory, if present
//  3. a .env file, loaded into the process environment without replacing
//     variables that are already set
//  4. environment variables
//
// The default configuration directory is ~/.config/entrabridge; commands
// accept --config-path to use another one.
//
// # Environment variables
//
//	PORT                 server.port
//	PUBLIC_URL           server.publicUrl
//	TENANT_ID            entra.tenantId
//	CLIENT_ID            entra.clientId
//	CLIENT_SECRET        entra.clientSecret
//	REDIRECT_URI         entra.redirectUri
//	TOKEN_URL            entra.tokenUrl
//	GITHUB_REDIRECT_URL  github.redirectUrl
//	DEBUG                logging.level=debug when true
//	VERBOSE              logging.verbose
//
// # Example config.yaml
//
//	server:
//	  port: 3000
//	  publicUrl: https://relay.example.com
//	entra:
//	  tenantId: 00000000-0000-0000-0000-000000000000
//	  clientId: 11111111-1111-1111-1111-111111111111
//	github:
//	  redirectUrl: https://github.com/copilot
//	completion:
//	  model: gpt-4o
//	cache:
//	  ttl: 1h
//	  sweepInterval: 5m
//
// Secrets such as entra.clientSecret are better supplied through the
// environment than written to config.yaml.
package config
