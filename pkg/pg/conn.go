package pg

import (
	"database/sql"
	"fmt"
)

type Config struct {
	User         string
	Host         string
	Port         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", c.Host, c.User, c.Password, c.Database, c.Port, sslMode)
}

func newSqlConnection(config Config) (*sql.DB, error) {
	return sql.Open("postgres", config.DSN())
}
