package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/pkg/config"
)

func TestNewPoolConfig_DesdeCampos(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{
		Host: "db", Port: 5433, User: "ledger", Password: "p@ss", DBName: "ledger", SSLMode: "disable",
	})
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host, "el host no se reemplaza por una IP")
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "p@ss", pc.ConnConfig.Password)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.NotNil(t, pc.AfterConnect, "registra el codec decimal")
}

func TestNewPoolConfig_DatabaseURLYMaxConns(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{
		DatabaseURL: "postgres://u:p@pg.internal:5432/ledger?sslmode=disable",
		Host:        "ignorado",
		MaxConns:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", pc.ConnConfig.Host)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
	assert.Equal(t, int32(1), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns, "nunca más mínimas que máximas")
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/db"})
	assert.Error(t, err)
}
