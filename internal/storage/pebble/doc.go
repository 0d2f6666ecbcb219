// Package pebblestore implements kv.Store on Pebble with an fsync policy and
// a minimal metrics hook.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic multi-key update
//	_ = db.Write(ctx, []kv.Mutation{kv.Set([]byte("k"), []byte("v")), kv.Del([]byte("old"))})
//	v, _ := db.Get([]byte("k"))
package pebblestore
