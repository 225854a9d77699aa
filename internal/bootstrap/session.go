package bootstrap

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/onoo-labs/marketing-assistant/config"
	"github.com/onoo-labs/marketing-assistant/internal/coordinator"
	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/imaging"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/repository"
	"github.com/onoo-labs/marketing-assistant/internal/project/service"
)

// Session is one assistant session: the project store plus the
// coordinators operating on it.
type Session struct {
	Store      *service.Store
	Compositor *imaging.Compositor
	Generator  *generation.Client
	Models     coordinator.Models

	Profile  *coordinator.Profile
	Chat     *coordinator.Chat
	Post     *coordinator.Post
	Ad       *coordinator.Ad
	Identity *coordinator.Identity
	Voice    *coordinator.Voice

	closers []io.Closer
}

type SessionOptions struct {
	// Offline skips the remote store.
	Offline bool
	// NeedGenerator makes a missing API key fatal.
	NeedGenerator bool
}

// OpenSession wires a session from cfg and hydrates its project.
func OpenSession(ctx context.Context, cfg *config.Config, log logging.Logger, opt SessionOptions) (*Session, service.Source, error) {
	s := &Session{
		Compositor: imaging.NewCompositor(log),
		Models: coordinator.Models{
			Text:    cfg.GenAI.TextModel,
			Chat:    cfg.GenAI.ChatModel,
			Image:   cfg.GenAI.ImageModel,
			AdImage: cfg.GenAI.AdImageModel,
			Voice:   cfg.GenAI.VoiceModel,
		},
	}

	local, err := openLocalCache(ctx, cfg)
	if err != nil {
		return nil, "", err
	}

	var remote repository.RemoteStore
	if !opt.Offline && cfg.Client.RemoteURL != "" {
		remote = repository.NewHTTPRemote(cfg.Client.RemoteURL)
	}

	s.Store = service.NewStore(local, remote, log, service.Options{
		SavedWindow: cfg.Client.SavedStatusWindow,
		ErrorWindow: cfg.Client.ErrorStatusWindow,
	})
	if c, ok := local.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}

	gen, err := generation.NewClient(ctx, generation.Config{
		APIKey:            cfg.GenAI.APIKey,
		RequestsPerMinute: cfg.GenAI.RequestsPerMinute,
	}, log)
	if err != nil && opt.NeedGenerator {
		s.Close()
		return nil, "", err
	}
	s.Generator = gen

	s.Profile = coordinator.NewProfile(s.Store)
	s.Voice = coordinator.NewVoice(s.Store, log)
	if gen != nil {
		s.Chat = coordinator.NewChat(s.Store, gen, s.Models.Chat, log)
		s.Post = coordinator.NewPost(s.Store, gen, gen, s.Compositor, s.Models, log)
		s.Ad = coordinator.NewAd(s.Store, gen, s.Compositor, s.Models.AdImage, log)
		s.Identity = coordinator.NewIdentity(s.Store, gen, gen, s.Models, log)
	}

	source, err := s.Store.Hydrate(ctx)
	if err != nil {
		s.Close()
		return nil, "", err
	}
	return s, source, nil
}

func openLocalCache(ctx context.Context, cfg *config.Config) (repository.LocalCache, error) {
	switch cfg.Client.LocalCache {
	case config.CacheFile:
		return repository.NewFileCache(cfg.Client.LocalCachePath, cfg.Store.ProjectKey), nil
	case config.CacheSQLite:
		path := filepath.Join(cfg.Client.LocalCachePath, "project.db")
		cache, err := repository.OpenSQLiteCache(ctx, path, cfg.Store.ProjectKey)
		if err != nil {
			return nil, fmt.Errorf("open local cache: %w", err)
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown local cache %q", cfg.Client.LocalCache)
	}
}

// Close stops status timers and releases the local cache.
func (s *Session) Close() {
	if s.Store != nil {
		s.Store.Close()
	}
	for _, c := range s.closers {
		_ = c.Close()
	}
}
