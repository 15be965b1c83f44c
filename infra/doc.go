// Package infra contains technical adapters such as the solution cache,
// metrics exporters and the Postgres run log. These packages should depend
// only on the interfaces defined in the core packages.
package infra
