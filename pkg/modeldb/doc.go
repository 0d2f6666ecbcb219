// Package modeldb persists typed models on an ordered key/value store and
// notifies listeners around every mutation.
//
// Each Put or Delete runs in three steps. The will-phase calls every
// registered listener in registration order and stops at the first error,
// which is returned unchanged with nothing written. The commit writes all
// staged operations as one atomic batch; a store failure is returned as a
// *StoreError and no listener hears about it. The did-phase calls every
// listener for every committed operation, collecting failures into a
// *DidError whose Primary is the first error raised.
//
// Direct calls run in their own transaction:
//
//	reg := model.NewRegistry()
//	_ = model.Register(reg, "Adult", func(a *Adult) model.Metadata {
//		return model.NewMetadata(model.ValueOf(a.ID),
//			model.Index{Name: "birth", Value: model.ValueOf(a.Birth.Year)})
//	})
//	db, _ := modeldb.Open(pebblestore.Options{DataDir: dir}, modeldb.Options{Registry: reg})
//	defer db.Close()
//	key, err := db.Put(ctx, &Adult{ID: "BRYS", Birth: Date{Year: 1986}})
//
// Batches stage operations and commit them with Write:
//
//	tx, err := db.NewTransaction()
//	if err != nil {
//		return err
//	}
//	defer tx.Close()
//	_, _ = tx.Put(a)
//	_ = tx.Delete(oldKey)
//	err = tx.Write(ctx)
//
// Keys are resolved once per (type, primary key) for the lifetime of the DB,
// so GetHeapKey, Put and later lookups hand out equal keys.
package modeldb
