package react

import "github.com/rzbill/modeldb/pkg/model"

// Listener observes mutations. Will callbacks run before a mutation is
// staged and may veto it by returning an error. Did callbacks run after the
// write is durable; their errors are reported but do not undo anything.
//
// Embed Base to implement only the callbacks you need.
type Listener interface {
	// SetSubscription is called once, at registration, with the handle the
	// listener can later Close to stop receiving events.
	SetSubscription(sub *Subscription)
	WillPut(m any, typeName string, md model.Metadata) error
	DidPut(m any, typeName string, md model.Metadata) error
	// WillDelete receives a memoized loader for the stored model. Calling it
	// any number of times performs at most one store read and returns the
	// same instance; it returns nil, nil when nothing is stored under key.
	WillDelete(key model.Key, typeName string, getModel func() (any, error)) error
	DidDelete(key model.Key, typeName string) error
}

// Base implements every Listener callback as a no-op.
type Base struct{}

func (Base) SetSubscription(*Subscription)                           {}
func (Base) WillPut(any, string, model.Metadata) error               { return nil }
func (Base) DidPut(any, string, model.Metadata) error                { return nil }
func (Base) WillDelete(model.Key, string, func() (any, error)) error { return nil }
func (Base) DidDelete(model.Key, string) error                       { return nil }

// Funcs adapts plain functions to a Listener. Nil fields are no-ops.
type Funcs struct {
	OnSubscribe  func(sub *Subscription)
	OnWillPut    func(m any, typeName string, md model.Metadata) error
	OnDidPut     func(m any, typeName string, md model.Metadata) error
	OnWillDelete func(key model.Key, typeName string, getModel func() (any, error)) error
	OnDidDelete  func(key model.Key, typeName string) error
}

func (f *Funcs) SetSubscription(sub *Subscription) {
	if f.OnSubscribe != nil {
		f.OnSubscribe(sub)
	}
}

func (f *Funcs) WillPut(m any, typeName string, md model.Metadata) error {
	if f.OnWillPut == nil {
		return nil
	}
	return f.OnWillPut(m, typeName, md)
}

func (f *Funcs) DidPut(m any, typeName string, md model.Metadata) error {
	if f.OnDidPut == nil {
		return nil
	}
	return f.OnDidPut(m, typeName, md)
}

func (f *Funcs) WillDelete(key model.Key, typeName string, getModel func() (any, error)) error {
	if f.OnWillDelete == nil {
		return nil
	}
	return f.OnWillDelete(key, typeName, getModel)
}

func (f *Funcs) DidDelete(key model.Key, typeName string) error {
	if f.OnDidDelete == nil {
		return nil
	}
	return f.OnDidDelete(key, typeName)
}
