package server

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render/svg"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/viewer"
)

// open builds a live session for rec.
func (s *Server) open(ctx context.Context, rec *store.Record) (*session, error) {
	r, err := svg.New(svg.OptionsFromConfig(s.cfg))
	if err != nil {
		return nil, err
	}
	v, err := viewer.New(ctx, s.cfg, rec.Document, viewer.Options{
		Engine:   s.engine,
		Renderer: r,
		Logger:   s.logger.With("session", rec.ID),
		Cache:    s.cache,
		Keyer:    s.keyer,
	})
	if err != nil {
		return nil, err
	}
	v.SetLod(rec.LOD)
	return &session{rec: rec, viewer: v, svg: r}, nil
}

// create stores doc as a new session.
func (s *Server) create(ctx context.Context, doc *graph.Document) (*session, error) {
	rec := store.NewRecord(doc, s.ttl)
	sess, err := s.open(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[rec.ID] = sess
	s.mu.Unlock()
	s.logger.Info("session created", "session", rec.ID,
		"nodes", sess.viewer.Model().NodeCount(), "edges", sess.viewer.Model().EdgeCount())
	return sess, nil
}

// lookup returns the live session for id, rebuilding it from the store when
// it is not in memory. The caller must lock the session before use.
func (s *Server) lookup(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	rec, err := s.store.Get(ctx, id)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session %s", id)
	}
	built, err := s.open(ctx, rec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	s.sessions[id] = built
	s.logger.Debug("session restored", "session", id)
	return built, nil
}

// persist writes the session's current document and level of detail. The
// caller holds sess.mu.
func (s *Server) persist(ctx context.Context, sess *session) error {
	if sess.deleted {
		return nil
	}
	sess.rec.Document = sess.viewer.Model().Document()
	sess.rec.LOD = sess.viewer.Lod()
	sess.rec.Touch(s.ttl)
	if err := s.store.Put(ctx, sess.rec); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "persist session %s", sess.rec.ID)
	}
	return nil
}

// remove drops a session from memory and the store.
func (s *Server) remove(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.mu.Lock()
		sess.deleted = true
		sess.mu.Unlock()
	} else if _, err := s.store.Get(ctx, id); stderrors.Is(err, store.ErrNotFound) {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete session %s", id)
	}
	return nil
}
