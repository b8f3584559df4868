package db

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"adops/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"silent":  logger.Silent,
		"ERROR":   logger.Error,
		" info ":  logger.Info,
		"warn":    logger.Warn,
		"":        logger.Warn,
		"verbose": logger.Warn,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host: "db", Port: 5433, User: "ads", Password: "pw", Name: "adops", SSLMode: "require",
	})
	assert.Equal(t, "host=db user=ads password=pw dbname=adops port=5433 sslmode=require", dsn)
}

func TestModelsCoverFileTree(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Models() {
		names[strings.TrimPrefix(fmt.Sprintf("%T", m), "*models.")] = true
	}
	for _, want := range []string{"Account", "User", "UserAccount", "UserPermission", "Brand", "Folder", "File", "FolderBrandAccess", "FileBrandAccess"} {
		assert.True(t, names[want], want)
	}
}
