package database

import (
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// MySQLDSN builds a DSN with the parameters the models rely on
// (parseTime for DATETIME columns, utf8mb4 for labels).
func MySQLDSN(user, password, addr, dbName string) string {
	cfg := gomysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}
