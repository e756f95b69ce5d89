package store

import (
	"context"

	"github.com/vango-dev/sugar/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// hydrate replaces the state with the stored value, if there is one that
// deserializes. It bypasses the commit path: subscribers are not called and
// nothing is saved.
func (s *Store[T]) hydrate() {
	p := s.persist
	_, span := telemetry.StartSpan(context.Background(), "store.hydrate",
		attribute.String("store.name", s.name),
		attribute.String("store.key", p.key),
	)

	result := "restored"
	defer func() {
		s.metrics.StoreHydrations.WithLabelValues(s.name, result).Inc()
		span.SetAttributes(attribute.String("store.result", result))
		telemetry.EndSpan(span, nil)
	}()

	text, ok, err := p.storage.GetItem(p.key)
	if err != nil {
		result = "read_error"
		if p.debug {
			s.logger.Warn("store hydrate read failed", "key", p.key, "error", err)
		}
		return
	}
	if !ok || text == "" {
		result = "empty"
		return
	}

	v, err := p.serializer.Deserialize(text)
	if err != nil {
		result = "parse_error"
		if p.debug {
			s.logger.Warn("store hydrate parse failed", "key", p.key, "error", err)
		}
		return
	}
	s.state.Set(v)
}

// save writes the latest state. Saves are serialized and always read the
// state under the save lock, so the last save reflects the last commit.
func (s *Store[T]) save() {
	p := s.persist
	if p == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	state := s.state.Peek()
	text, err := p.serializer.Serialize(state)
	if err == nil {
		err = p.storage.SetItem(p.key, text)
	}
	if err != nil {
		s.metrics.StoreSaveErrors.WithLabelValues(s.name).Inc()
		s.logger.Warn("store save failed", "key", p.key, "error", err)
		return
	}

	s.metrics.StoreSaves.WithLabelValues(s.name).Inc()
	if p.debug {
		s.logger.Debug("store saved", "key", p.key, "value", text)
	}
}
