// Package models defines the server-side entities persisted in the database.
package models
