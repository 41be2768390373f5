// Package config defines the format-agnostic run model of the application
// together with the Loader interface that format-specific packages
// implement.
//
// The `config.Model` is the single source of truth for the `simulation` and
// `app` packages. Concrete loaders, for HCL and YAML, are provided in
// separate packages and only ever overlay values on top of Default().
package config
