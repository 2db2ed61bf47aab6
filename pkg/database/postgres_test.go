package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "timetable", Password: "s3cret", Name: "sma_timetable", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=timetable password=s3cret dbname=sma_timetable sslmode=disable", DSN(cfg))
}

func TestDSNQuotesAndSkipsEmpty(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "timetable", Password: `it's a pass\word`, Name: "sma_timetable"}
	assert.Equal(t, `host=db port=5432 user=timetable password='it\'s a pass\\word' dbname=sma_timetable`, DSN(cfg))
}
