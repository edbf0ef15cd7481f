// Package postgres provides PostgreSQL implementations of the store
// interfaces, using the pgx stdlib driver and goose for embedded schema
// migrations. Database errors are translated into the store package's error
// vocabulary by MapError.
package postgres
