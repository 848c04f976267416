// Package config loads daemon configuration for a Mind from file and
// environment via viper: routine schedule, budget limits, sleep window,
// timeouts, state path and logging. Defaults mirror the built-in constants
// so an empty config yields a fully working Mind.
package config
