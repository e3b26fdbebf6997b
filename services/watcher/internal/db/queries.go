package db

import "time"

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS solar`,
	`CREATE TABLE IF NOT EXISTS solar.solardata (
    id          BIGSERIAL PRIMARY KEY,
    watt        INTEGER NULL DEFAULT 0,
    "timestamp" TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS solardata_timestamp_idx ON solar.solardata ("timestamp")`,
}

const insertSQL = `INSERT INTO solar.solardata (watt) VALUES ($1)`

const selectLastSQL = `
    SELECT watt, "timestamp"
    FROM solar.solardata
    WHERE watt IS NOT NULL
    ORDER BY "timestamp" DESC, id DESC
    LIMIT 1
`

const selectMaxSQL = `
    SELECT d.watt, d."timestamp"
    FROM solar.solardata d
    INNER JOIN (
        SELECT MAX(watt) AS w
        FROM solar.solardata
    ) m ON d.watt = m.w
    ORDER BY d."timestamp", d.id
    LIMIT 1
`

const selectAllSQL = `
    SELECT "timestamp", watt::double precision
    FROM solar.solardata
    WHERE watt IS NOT NULL
    ORDER BY "timestamp", id
`

const selectWindowSQL = `
    SELECT "timestamp", watt::double precision
    FROM solar.solardata
    WHERE watt IS NOT NULL
      AND "timestamp" >= now() - make_interval(secs => $1)
      AND "timestamp" <= now()
    ORDER BY "timestamp", id
`

const dailyAverageSQL = `
    SELECT date_trunc('day', "timestamp" AT TIME ZONE 'UTC') AT TIME ZONE 'UTC' AS day,
           AVG(watt)::double precision
    FROM solar.solardata
    WHERE watt IS NOT NULL
    GROUP BY day
    ORDER BY day
`

const selectMinTimestampSQL = `SELECT MIN("timestamp") FROM solar.solardata`

const countSQL = `SELECT COUNT(*) FROM solar.solardata`

func windowQuery(window time.Duration) (string, []any) {
	if window <= 0 {
		return selectAllSQL, nil
	}
	return selectWindowSQL, []any{window.Seconds()}
}
