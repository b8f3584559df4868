package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"adops/internal/utils/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/afero"
)

var (
	_ ObjectStorage = (*LocalStorage)(nil)
)

// ErrInvalidDownloadToken is returned for expired, forged or malformed download links.
var ErrInvalidDownloadToken = errors.New("invalid download token")

// NewOsFs roots an afero filesystem at basePath on disk.
func NewOsFs(basePath string) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), basePath)
}

// LocalStorage keeps payloads on an afero filesystem. Download links carry a signed,
// expiring token that the download route checks with VerifyToken.
type LocalStorage struct {
	fs        afero.Fs
	publicURL string
	secret    []byte
	logger    *logger.Logger
}

func NewLocalStorage(fs afero.Fs, publicURL, secret string) *LocalStorage {
	return &LocalStorage{
		fs:        fs,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    []byte(secret),
		logger:    logger.New("local_storage"),
	}
}

type downloadClaims struct {
	Key string `json:"key"`
	jwt.RegisteredClaims
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", s.logger.Error("Failed to create directory for %s", err, key)
	}
	if err := afero.WriteReader(s.fs, key, body); err != nil {
		return "", s.logger.Error("Failed to write %s", err, key)
	}
	s.logger.Info("📤 Stored %s (%d bytes, %s)", key, size, contentType)
	return key, nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, key)
}

// Open returns the payload stored under key.
func (s *LocalStorage) Open(key string) (afero.File, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(key)
}

func (s *LocalStorage) GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	claims := downloadClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", s.logger.Error("Failed to sign download link", err)
	}
	return fmt.Sprintf("%s/api/v1/storage/download?token=%s", s.publicURL, url.QueryEscape(token)), nil
}

// VerifyToken returns the object key a download token grants.
func (s *LocalStorage) VerifyToken(token string) (string, error) {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Key == "" {
		return "", ErrInvalidDownloadToken
	}
	return claims.Key, nil
}
