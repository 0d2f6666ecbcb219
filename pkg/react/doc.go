// Package react holds the listener side of modeldb: the Listener capability
// set, subscription handles, the Manager that keeps subscriptions in
// registration order, and CEL-filtered listeners.
//
//	sub := mgr.Register(&react.Funcs{
//	    OnDidPut: func(m any, typeName string, md model.Metadata) error {
//	        log.Info("stored", log.Str("type", typeName))
//	        return nil
//	    },
//	})
//	defer sub.Close()
//
// Dispatchers iterate Manager.Snapshot, which is stable for the duration of
// one phase even if listeners close their own subscriptions mid-delivery.
package react
