package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	require.Error(t, err)

	_, err = Connect(DriverPostgres, "")
	require.Error(t, err)
}

func TestConnectSQLite(t *testing.T) {
	db, err := Connect("", "file:database_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestConnectRedis(t *testing.T) {
	mini := miniredis.RunT(t)

	client, err := ConnectRedis("redis://" + mini.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis("")
	require.Error(t, err)
}
