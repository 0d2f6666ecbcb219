// Package config provides loading and environment overlay for modeldb
// configuration. It exposes a Default() baseline that Load (JSON or YAML)
// and FromEnv (MODELDB_* variables) build on.
//
// Example:
//
//	cfg, err := config.Load("/etc/modeldb.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	rt, err := runtime.Open(runtime.Options{Config: cfg, Registry: reg})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
package config
