package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/teamsweep/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		wantTLS string
	}{
		{"preferred", config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Password: "secret", Database: "sugarcrm", TLS: "preferred"}, "preferred"},
		{"empty tls", config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Database: "sugarcrm"}, "preferred"},
		{"disabled", config.DatabaseConfig{Host: "db", Port: 3307, User: "sugar", Password: "p@ssw0rd!", Database: "crm", TLS: "disable"}, "false"},
		{"required", config.DatabaseConfig{Host: "db", Port: 3306, User: "sugar", Database: "crm", TLS: "required"}, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := BuildDSN(&tt.cfg)

			parsed, err := mysql.ParseDSN(dsn)
			require.NoError(t, err, dsn)
			assert.Equal(t, tt.cfg.User, parsed.User)
			assert.Equal(t, tt.cfg.Password, parsed.Passwd)
			assert.Equal(t, "tcp", parsed.Net)
			assert.Equal(t, tt.cfg.Host+":"+strconv.Itoa(tt.cfg.Port), parsed.Addr)
			assert.Equal(t, tt.cfg.Database, parsed.DBName)
			assert.True(t, parsed.ParseTime)
			assert.Equal(t, tt.wantTLS, parsed.TLSConfig)
			assert.False(t, parsed.MultiStatements)
		})
	}
}

func TestNewManager(t *testing.T) {
	cfg := config.DefaultConfig()
	m := NewManager(cfg)

	assert.NotNil(t, m)
	assert.Nil(t, m.Source)
	assert.Nil(t, m.Replica)
	assert.Same(t, cfg, m.config)
}

func TestManager_CloseAndPingWithoutConnect(t *testing.T) {
	m := NewManager(config.DefaultConfig())

	assert.NoError(t, m.Close())
	assert.NoError(t, m.Ping(context.Background()))
}
