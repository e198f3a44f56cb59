package predict

import (
	"context"
	"errors"
	"fmt"
	"os"

	"osk/internal/logging"
)

// ErrNoWords is returned by Load when neither the word list nor a usable
// cache exists.
var ErrNoWords = errors.New("predict: no word list")

// Load builds a trie from the word list at rawPath, using the SQLite cache
// at cachedPath when it is at least as new as the word list. A fresh cache
// is written after parsing the raw list. Cache failures are logged and
// never fatal. Either path may be empty.
func Load(ctx context.Context, rawPath, cachedPath string, log *logging.Logger) (*Trie, error) {
	if log == nil {
		log = logging.Default().WithComponent("predict")
	}

	var rawInfo os.FileInfo
	if rawPath != "" {
		info, err := os.Stat(rawPath)
		switch {
		case err == nil:
			rawInfo = info
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("stat word list: %w", err)
		}
	}

	var cache *Cache
	if cachedPath != "" {
		c, err := OpenCache(cachedPath)
		if err != nil {
			log.Warn("word cache unavailable", "path", cachedPath, "error", err)
		} else {
			cache = c
			defer cache.Close()
		}
	}

	if cache != nil {
		if entries, ok := fromCache(ctx, cache, rawInfo, log); ok {
			log.Debug("loaded words from cache", "path", cachedPath, "words", len(entries))
			return Build(entries), nil
		}
	}

	if rawInfo == nil {
		return nil, ErrNoWords
	}
	entries, err := ParseWordsFile(rawPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawPath, err)
	}
	log.Info("parsed word list", "path", rawPath, "words", len(entries))

	if cache != nil {
		if err := cache.Store(ctx, entries, rawInfo.ModTime()); err != nil {
			log.Warn("failed to write word cache", "path", cachedPath, "error", err)
		}
	}
	return Build(entries), nil
}

// fromCache returns the cached entries when the cache is usable. Without a
// raw word list any populated cache is used.
func fromCache(ctx context.Context, cache *Cache, rawInfo os.FileInfo, log *logging.Logger) ([]Entry, bool) {
	if rawInfo != nil {
		valid, err := cache.Valid(ctx, rawInfo.ModTime())
		if err != nil {
			log.Warn("word cache unreadable", "error", err)
			return nil, false
		}
		if !valid {
			return nil, false
		}
	}
	entries, err := cache.Entries(ctx)
	if err != nil {
		log.Warn("word cache unreadable", "error", err)
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}
