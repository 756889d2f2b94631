package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Колонки, которые использует CreateOrUpdateTelegramUser, должны быть
// объявлены в схеме, иначе авторизация через Telegram падает на первом же запросе
func Test_Schema_TelegramUsersColumns(t *testing.T) {
	ddl := tableDDL(t, "telegram_users")

	for _, column := range []string{"telegram_id", "user_id", "username", "photo_url", "raw_data", "updated_at"} {
		assert.Contains(t, ddl, column, "в таблице telegram_users нет колонки %s", column)
	}
}

func Test_Schema_UsersColumns(t *testing.T) {
	ddl := tableDDL(t, "users")

	for _, column := range []string{"name", "email", "password_hash", "phone", "location", "avatar_url"} {
		assert.Contains(t, ddl, column, "в таблице users нет колонки %s", column)
	}
}

// tableDDL вырезает из schema.sql определение одной таблицы
func tableDDL(t *testing.T, table string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "migrations", "schema.sql"))
	require.NoError(t, err)

	schema := string(data)
	marker := "CREATE TABLE IF NOT EXISTS " + table + " ("
	start := strings.Index(schema, marker)
	require.NotEqual(t, -1, start, "в schema.sql нет таблицы %s", table)

	end := strings.Index(schema[start:], ");")
	require.NotEqual(t, -1, end)

	return schema[start : start+end]
}
