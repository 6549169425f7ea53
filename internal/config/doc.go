// Package config provides configuration structures and utilities for
// clfetch. It defines the fetch, retry, and concurrency options, search
// presets loaded from the configuration file, and report output preferences.
package config
