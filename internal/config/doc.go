// Package config provides configuration structures and utilities for pagerank.
// It defines the ranking parameters, report preferences and storage
// location, and loads overrides from the .pagerank file and PAGERANK_*
// environment variables.
package config
