// Package shared provides utilities used across the codebase that do not
// belong to any specific domain layer. The testutil subpackage holds the
// log-capturing slog handler and table fixtures used by package tests.
package shared
