// Package runtime wires configuration, logging and Pebble storage into an
// opened modeldb.DB. It exposes Open/Close and a basic health check.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	rt, _ := runtime.Open(runtime.Options{Config: cfg, Registry: reg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	_, _ = rt.DB().Put(context.Background(), &Order{ID: "o-1"})
package runtime
