// Package config provides configuration structures and utilities for
// politecrawl. It defines the crawl bounds, politeness settings, report
// preferences and the optional per-site configuration file.
package config
