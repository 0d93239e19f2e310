package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"flux/internal/form"
)

// Current schema version - increment when ArtifactPayload format changes
const artifactSchemaVersion uint16 = 1

// Digest keys the artifact cache. It is a SHA-256 over everything that
// determines the artifact: source text, schedule and target form.
type Digest [sha256.Size]byte

// SourceDigest computes the cache key for one compile.
func SourceDigest(src []byte, schedule []string, target form.Form) Digest {
	h := sha256.New()
	h.Write(src)
	h.Write([]byte{0})
	for _, name := range schedule {
		_, _ = io.WriteString(h, name)
		h.Write([]byte{0})
	}
	h.Write([]byte{byte(target)})
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ArtifactPayload stores one emitted artifact for fast recompilation.
type ArtifactPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Circuit string
	Target  uint8 // form.Form
	Text    string
}

// ArtifactCache хранит эмитированные артефакты по дайджесту на диске.
// Thread-safe for concurrent access.
type ArtifactCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenArtifactCache initializes and returns a disk cache at the standard
// location for the given application name.
func OpenArtifactCache(app string) (*ArtifactCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ArtifactCache{dir: dir}, nil
}

func (c *ArtifactCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства читаемости/очистки — подкаталог "artifacts".
	return filepath.Join(c.dir, "artifacts", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *ArtifactCache) Put(key Digest, payload *ArtifactPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck // gone already when the rename won

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. It returns
// false without an error when the key is absent.
func (c *ArtifactCache) Get(key Digest, out *ArtifactPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close() //nolint:errcheck // read-only handle

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *ArtifactCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим в фоне
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
