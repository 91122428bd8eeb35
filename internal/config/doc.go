// Package config loads demo-config.yaml, the single file describing the
// cluster, registries and journal destination of a demo environment, and
// the environment overrides of the wait command.
//
// Each command needs a different subset of the file: building images needs
// both registries and the cluster, deploying the fleet needs the private
// registry and the cluster, and waiting needs at most a server and token.
// Commands check their subset with [Demo.Require].
package config
