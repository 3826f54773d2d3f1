// Package logger is a small factory over log/slog: env-driven level and
// format, static service attributes, safe production defaults. Services
// receive a *slog.Logger, never a package-specific type.
package logger
