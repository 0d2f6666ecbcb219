package cli

import (
	logpkg "github.com/rzbill/modeldb/pkg/log"
	"github.com/rzbill/modeldb/pkg/model"
	"github.com/rzbill/modeldb/pkg/react"
)

// eventLogger logs every notification it receives.
type eventLogger struct {
	react.Base
	logger logpkg.Logger
}

func (e *eventLogger) SetSubscription(sub *react.Subscription) {
	e.logger = e.logger.With(logpkg.Str("subscription", sub.ID().String()))
}

func (e *eventLogger) WillPut(_ any, typeName string, md model.Metadata) error {
	e.logger.Info("willPut", logpkg.Str("key", keyOf(typeName, md).String()), logpkg.Any("indexes", md.IndexStrings()))
	return nil
}

func (e *eventLogger) DidPut(_ any, typeName string, md model.Metadata) error {
	e.logger.Info("didPut", logpkg.Str("key", keyOf(typeName, md).String()))
	return nil
}

func (e *eventLogger) WillDelete(key model.Key, _ string, _ func() (any, error)) error {
	e.logger.Info("willDelete", logpkg.Str("key", key.String()))
	return nil
}

func (e *eventLogger) DidDelete(key model.Key, _ string) error {
	e.logger.Info("didDelete", logpkg.Str("key", key.String()))
	return nil
}

func keyOf(typeName string, md model.Metadata) model.Key {
	return model.Key{Type: typeName, ID: md.ID}
}
