// ABOUTME: Charm KV client wrapper for the cloud-synced index backend
// ABOUTME: Authentication uses the local SSH keys managed by charm
package charm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = errors.New("key not found")

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns the default configuration, honoring CHARM_HOST
func DefaultConfig() Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "charm.2389.dev"
	}
	return Config{
		Host:     host,
		DBName:   "naradmuni",
		AutoSync: true,
	}
}

// Client wraps a charm KV database
type Client struct {
	kv     *kv.KV
	config Config
	mu     sync.Mutex
}

// NewClient opens the KV database named in cfg and pulls remote data when AutoSync is set
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host != "" {
		// charm reads the host from the environment when opening
		if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
			return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
		}
	}
	if cfg.DBName == "" {
		cfg.DBName = DefaultConfig().DBName
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil
	}
	err := c.kv.Close()
	c.kv = nil
	return err
}

// Host returns the charm server this client talks to
func (c *Client) Host() string {
	return c.config.Host
}

// SyncIfEnabled pushes local writes when AutoSync is on
func (c *Client) SyncIfEnabled() error {
	if !c.config.AutoSync {
		return nil
	}
	return c.Sync()
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Reset wipes all local data
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// Set stores a value with the given key
func (c *Client) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves a value by key, ErrNotFound when it does not exist
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return value, err
}

// Delete removes a key
func (c *Client) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// ListKeys returns all keys with the given prefix
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		keyStr := string(key)
		if strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	return result, nil
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// GetAuthorizedKeys returns the list of linked devices/keys
func (c *Client) GetAuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}
